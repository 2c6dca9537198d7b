package extract

// defaultRoleKeywords are titles that mark the following capitalized words
// as a character name. Overridden wholesale by ExtractConfig.RoleKeywords.
var defaultRoleKeywords = []string{
	"queen", "king", "lord", "lady", "prince", "princess",
	"emperor", "empress", "duke", "duchess", "baron", "baroness",
	"captain", "commander", "general", "admiral", "sergeant",
	"sir", "dame", "master", "mistress", "elder", "archmage", "high",
}

// stopwords are capitalized function words that never begin a name.
var stopwords = map[string]bool{
	"The": true, "A": true, "An": true,
	"I": true, "He": true, "She": true, "It": true, "We": true,
	"You": true, "They": true,
	"His": true, "Her": true, "Its": true, "Their": true, "Our": true,
	"My": true, "Your": true,
	"This": true, "That": true, "These": true, "Those": true,
	"And": true, "But": true, "Or": true, "Nor": true, "So": true,
	"If": true, "When": true, "While": true, "Then": true, "Than": true,
	"There": true, "Here": true, "Where": true, "Who": true, "Whose": true,
	"What": true, "Which": true, "Why": true, "How": true,
	"As": true, "At": true, "In": true, "On": true, "Of": true,
	"For": true, "To": true, "By": true, "With": true, "From": true,
	"After": true, "Before": true, "During": true, "Until": true,
	"Since": true, "Because": true, "Although": true, "Though": true,
	"Once": true, "Now": true, "Soon": true, "Later": true,
	"However": true, "Meanwhile": true, "Perhaps": true,
	"No": true, "Not": true, "Yes": true,
	"All": true, "Any": true, "Some": true, "Each": true, "Every": true,
	"Both": true, "Few": true, "Many": true, "Most": true, "Other": true,
	"Another": true, "Such": true, "Only": true, "Even": true,
	"Also": true, "Just": true, "Still": true, "Yet": true, "Too": true,
	"Very": true, "Again": true,
}

// orgNouns mark a span as an organization, either as the span's own first
// or last word ("House Teralyn", "Highwind Fleet") or as a lowercase noun
// right after it ("the Highwind fleet").
var orgNouns = map[string]bool{
	"fleet": true, "guild": true, "company": true, "order": true,
	"council": true, "legion": true, "army": true, "navy": true,
	"house": true, "clan": true, "syndicate": true, "brotherhood": true,
	"sisterhood": true, "coven": true, "band": true, "crew": true,
	"militia": true, "cult": true, "sect": true, "dynasty": true,
}

// locationSuffixes mark a span as a place by its first or last word
// ("Mount Kael", "Dark Forest").
var locationSuffixes = map[string]bool{
	"city": true, "town": true, "village": true, "port": true,
	"keep": true, "castle": true, "citadel": true, "fortress": true,
	"fort": true, "tower": true, "temple": true, "shrine": true,
	"abbey": true, "monastery": true, "tavern": true, "inn": true,
	"hall": true, "gate": true, "bridge": true, "market": true,
	"quarter": true, "district": true, "ward": true, "street": true,
	"road": true, "lane": true, "dock": true, "docks": true,
	"forest": true, "wood": true, "woods": true, "grove": true,
	"vale": true, "valley": true, "glen": true, "hollow": true,
	"moor": true, "marsh": true, "swamp": true, "fen": true,
	"desert": true, "plains": true, "steppe": true, "tundra": true,
	"mount": true, "mountain": true, "mountains": true,
	"peak": true, "peaks": true, "pass": true, "cliffs": true,
	"isle": true, "isles": true, "island": true, "bay": true,
	"cove": true, "cape": true, "coast": true, "harbor": true,
	"harbour": true, "river": true, "lake": true, "sea": true,
	"falls": true, "spire": true, "reach": true,
	"kingdom": true, "realm": true,
}

// locationVerbs follow a place name in active voice: "Ravenwood lies
// north of the pass."
var locationVerbs = map[string]bool{
	"lies": true, "lay": true, "stands": true, "stood": true,
	"sits": true, "sat": true, "borders": true, "bordered": true,
	"sprawls": true, "stretches": true, "overlooks": true,
}

// passiveLocationVerbs follow "is"/"was" after a place name: "Ravenwood
// is ruled by Queen Elara."
var passiveLocationVerbs = map[string]bool{
	"ruled": true, "governed": true, "located": true,
	"situated": true, "founded": true,
}

// charVerbs follow a character name as the sentence subject.
var charVerbs = map[string]bool{
	"commands": true, "commanded": true, "leads": true, "led": true,
	"rules": true, "reigns": true, "reigned": true,
	"said": true, "says": true, "spoke": true, "whispered": true,
	"shouted": true, "declared": true, "decreed": true, "vowed": true,
	"swore": true, "swears": true, "ordered": true, "summoned": true,
	"rode": true, "rides": true, "travels": true, "traveled": true,
	"journeyed": true, "arrived": true, "departed": true,
	"returned": true, "fought": true, "fights": true,
	"wields": true, "wielded": true, "forged": true,
	"serves": true, "served": true, "betrayed": true,
	"loves": true, "loved": true, "married": true, "slew": true,
	"knelt": true, "bowed": true,
}

// locationPrepositions precede a place name, optionally with an article
// in between: "in the Dark Forest", "near Ravenwood".
var locationPrepositions = map[string]bool{
	"in": true, "at": true, "near": true, "within": true,
	"beyond": true, "across": true, "outside": true,
	"toward": true, "towards": true,
}

// itemVerbs precede an item name, optionally with an article in between:
// "wields the Stormblade".
var itemVerbs = map[string]bool{
	"wields": true, "wielded": true, "carries": true, "carried": true,
	"bears": true, "bore": true, "holds": true, "held": true,
	"forged": true, "stole": true, "stolen": true,
	"brandished": true, "clutched": true,
}

// itemNouns mark a span as an item by its last word ("the Iron Crown").
var itemNouns = map[string]bool{
	"blade": true, "sword": true, "dagger": true, "spear": true,
	"axe": true, "hammer": true, "bow": true, "shield": true,
	"helm": true, "gauntlet": true, "cloak": true,
	"crown": true, "ring": true, "amulet": true, "pendant": true,
	"talisman": true, "relic": true, "orb": true, "staff": true,
	"scepter": true, "sceptre": true, "tome": true, "grimoire": true,
	"gem": true, "jewel": true, "mirror": true, "lantern": true,
	"key": true,
}
