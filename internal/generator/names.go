package generator

import "fmt"

// Theme name pools. Compound themes combine a prefix and a suffix pool.
var (
	animalNames = []string{
		"Bear", "Wolf", "Eagle", "Lion", "Tiger",
		"Shark", "Hawk", "Fox", "Deer", "Owl",
	}
	heroPrefixes = []string{
		"Captain", "Super", "Ultra", "Mega", "Power",
		"Storm", "Fire", "Ice", "Thunder", "Lightning",
	}
	heroSuffixes = []string{"Hero", "Guardian", "Defender", "Warrior", "Knight"}

	fantasyNames = []string{
		"Elf", "Dwarf", "Wizard", "Knight", "Archer",
		"Mage", "Warrior", "Ranger", "Paladin", "Druid",
	}
	spacePrefixes = []string{
		"Star", "Nova", "Comet", "Galaxy", "Nebula",
		"Cosmos", "Orbit", "Solar", "Lunar", "Astro",
	}
	spaceSuffixes = []string{"Explorer", "Pilot", "Navigator", "Commander", "Scout"}
)

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// characterName draws one themed name candidate for roster index i.
// Unknown themes fall back to the animals pool.
func (g *Generator) characterName(characterSet string, i int) string {
	switch characterSet {
	case "superheroes":
		return fmt.Sprintf("%s%s%02d", g.pick(heroPrefixes), g.pick(heroSuffixes), i)
	case "fantasy":
		return fmt.Sprintf("%s%02d", g.pick(fantasyNames), i)
	case "space":
		return fmt.Sprintf("%s%s%02d", g.pick(spacePrefixes), g.pick(spaceSuffixes), i)
	default:
		return fmt.Sprintf("%s%02d", g.pick(animalNames), i)
	}
}
