package protocol

import "github.com/annelo/climber-server/internal/entity"

var enemyTypes = map[entity.Kind]string{
	entity.KindGround: "Ground",
	entity.KindBird:   "Bird",
	entity.KindIce:    "Ice",
}

var fruitTypes = map[entity.Flavor]string{
	entity.FlavorOrange:   "Orange",
	entity.FlavorBanana:   "Banana",
	entity.FlavorEggplant: "Eggplant",
	entity.FlavorLettuce:  "Lettuce",
}

// EnemyType - имя варианта врага на проводе.
func EnemyType(k entity.Kind) string { return enemyTypes[k] }

// FruitType - имя вида фрукта на проводе.
func FruitType(f entity.Flavor) string { return fruitTypes[f] }
