package util

import (
	"fmt"
	"math/rand"
)

var adjectives = []string{
	"Sleepy", "Soggy", "Muddy", "Paddling", "Wading", "Floating", "Grazing", "Lounging", "Basking", "Snoozing",
	"Gentle", "Chubby", "Mellow", "Plump", "Quiet", "Sunny", "Damp", "Drifting", "Humming", "Nibbling",
	"Roaming", "Splashing", "Yawning", "Dozing", "Ambling", "Wandering", "Placid", "Serene", "Bubbly", "Marshy",
}

var critters = []string{
	"Capybara", "Heron", "Caiman", "Otter", "Jacana", "Anaconda", "Piranha", "Tapir", "Kingfisher",
	"Ibis", "Egret", "Toucan", "Coati", "Anteater", "Tegu", "Stork", "Spoonbill", "Frog", "Dragonfly",
	"Turtle", "Nutria", "Cormorant", "Curassow", "Agouti",
}

// GetRandomName returns a random display name by combining an adjective with
// a wetland critter
func GetRandomName() string {
	adjectivesIndex := rand.Intn(len(adjectives))
	crittersIndex := rand.Intn(len(critters))

	return fmt.Sprintf("%s %s", adjectives[adjectivesIndex], critters[crittersIndex])
}
