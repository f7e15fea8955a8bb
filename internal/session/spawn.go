package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/annelo/climber-server/internal/entity"
	"github.com/annelo/climber-server/internal/terrain"
)

var (
	ErrWrongMode  = errors.New("not allowed in current mode")
	ErrFruitLimit = errors.New("fruit limit reached")
	ErrNoSpace    = errors.New("no free tile found")
	ErrBadFloor   = errors.New("floor out of range")
)

// SpawnRequest - запрос на появление сущности, исполняется на ближайшем тике.
type SpawnRequest struct {
	Kind entity.Kind
	// Floor - номер этажа снизу начиная с 1; 0 выбирает случайный.
	Floor int
	// Column - столбец появления; 0 выбирает автоматически.
	Column int
}

// Floors возвращает количество этажей стандартной карты.
func (s *Session) Floors() int { return len(s.template.StandingRows()) }

func (s *Session) spawn(req SpawnRequest, now time.Time) error {
	if req.Kind == entity.KindFruit {
		return s.spawnFruit(now)
	}
	if s.mode != ModeNormal {
		return ErrWrongMode
	}
	row, err := s.floorRow(req.Floor)
	if err != nil {
		return err
	}

	w := s.template.Width()
	x := s.column(req.Column)
	y := row
	switch req.Kind {
	case entity.KindGround, entity.KindBird:
		if req.Column == 0 {
			x = 1
			if s.rng.Intn(2) == 1 {
				x = w - 2
			}
		}
	case entity.KindIce:
		// Сосулька висит под потолком этажа.
		y = row - (terrain.FloorSpacing - 2)
		if y < 1 {
			y = 1
		}
	}

	e, err := entity.New(req.Kind, float64(x), float64(y), s.env(now))
	if err != nil {
		return err
	}
	s.enemies = append(s.enemies, e)
	s.logger.Debugf("spawned %v at (%d,%d)", req.Kind, x, y)
	return nil
}

func (s *Session) spawnFruit(now time.Time) error {
	if s.mode != ModeBonus {
		return ErrWrongMode
	}
	if len(s.fruits) >= MaxFruits {
		return ErrFruitLimit
	}
	c, ok := s.grid.RandomEmptyTile(s.rng, fruitAttempts)
	if !ok {
		return ErrNoSpace
	}
	s.fruits = append(s.fruits, entity.NewRandomFruit(s.rng, float64(c.X), float64(c.Y), now))
	return nil
}

// floorRow переводит номер этажа в строку, на которой стоят.
func (s *Session) floorRow(floor int) (int, error) {
	rows := s.template.StandingRows()
	if len(rows) == 0 {
		return 0, ErrNoSpace
	}
	if floor == 0 {
		floor = 1 + s.rng.Intn(len(rows))
	}
	if floor < 1 || floor > len(rows) {
		return 0, fmt.Errorf("%w: %d (1..%d)", ErrBadFloor, floor, len(rows))
	}
	return rows[len(rows)-floor], nil
}

func (s *Session) column(col int) int {
	w := s.template.Width()
	if col == 0 {
		return 1 + s.rng.Intn(w-2)
	}
	if col < 1 {
		return 1
	}
	if col > w-2 {
		return w - 2
	}
	return col
}
