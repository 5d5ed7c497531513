package relay

var adjectives = []string{
	"tiny", "happy", "sleepy", "fluffy", "sparkly", "cheery", "silly", "jolly", "cozy", "shiny",
	"golden", "silver", "crimson", "emerald", "purple", "bright", "gentle", "brave", "calm", "swift",
	"silent", "bouncy", "fuzzy", "plucky", "merry", "peppy", "dizzy", "breezy", "lively", "sunny",
}

var animals = []string{
	"kitten", "puppy", "bunny", "panda", "koala", "fox", "otter", "hedgehog", "squirrel", "hamster",
	"penguin", "flamingo", "sparrow", "robin", "toucan", "parrot", "dolphin", "narwhal", "ferret", "beaver",
	"fawn", "foal", "lamb", "raccoon", "mole", "chick", "duckling", "seahorse", "starfish", "weasel",
}

var scenery = []string{
	"sunbeam", "stardust", "glimmer", "echo", "marble", "maple", "breeze", "meadow", "willow", "ember",
	"poppy", "pixel", "twig", "lantern", "puddle", "pebble", "cottage", "rocket", "comet", "orbit",
	"nebula", "canyon", "ridge", "harbor", "lagoon", "drizzle", "thimble", "button", "prism", "mosaic",
}
