package entity

import (
	"fmt"
	"strings"
)

// Kind - закрытый набор вариантов сущностей.
type Kind int

const (
	KindGround Kind = iota
	KindBird
	KindIce
	KindFruit
)

var kindNames = map[Kind]string{
	KindGround: "GROUND",
	KindBird:   "BIRD",
	KindIce:    "ICE",
	KindFruit:  "FRUIT",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind разбирает имя варианта без учёта регистра.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown entity kind %q", s)
}

// Flavor - вид фрукта.
type Flavor int

const (
	FlavorOrange Flavor = iota
	FlavorBanana
	FlavorEggplant
	FlavorLettuce
)

// Flavors перечисляет все виды фруктов.
var Flavors = []Flavor{FlavorOrange, FlavorBanana, FlavorEggplant, FlavorLettuce}

var flavorInfo = map[Flavor]struct {
	name   string
	points int
}{
	FlavorOrange:   {"ORANGE", 100},
	FlavorBanana:   {"BANANA", 200},
	FlavorEggplant: {"EGGPLANT", 300},
	FlavorLettuce:  {"LETTUCE", 400},
}

func (f Flavor) String() string { return flavorInfo[f].name }

// Points - очки за сбор фрукта.
func (f Flavor) Points() int { return flavorInfo[f].points }
