package session

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/annelo/climber-server/internal/entity"
	"github.com/annelo/climber-server/internal/mapgen"
	"github.com/annelo/climber-server/internal/player"
	"github.com/annelo/climber-server/internal/protocol"
	"github.com/annelo/climber-server/internal/terrain"
)

const (
	BonusDuration = 30 * time.Second
	// FloorGapThreshold - допустимое расстояние между этажами игроков в строках.
	FloorGapThreshold = terrain.FloorSpacing
	MaxFruits         = 4
	fruitAttempts     = 50
	// InboxSize - ёмкость очереди входящих команд сессии.
	InboxSize = 256

	gameOverText = "Game over. Send RESTART to play again."
)

// Mode - режим сессии.
type Mode int

const (
	ModeNormal Mode = iota
	ModeBonus
)

func (m Mode) String() string {
	if m == ModeBonus {
		return "BONUS"
	}
	return "NORMAL"
}

// Activation определяет, какие токены включают второго игрока.
type Activation int

const (
	// ActivateAny - любой токен движения или атаки.
	ActivateAny Activation = iota
	// ActivateOwn - только токены второго игрока.
	ActivateOwn
)

// ParseActivation понимает значения "any" и "own" из конфигурации.
func ParseActivation(v string) (Activation, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "any":
		return ActivateAny, nil
	case "own":
		return ActivateOwn, nil
	}
	return ActivateAny, fmt.Errorf("unknown p2 activation %q", v)
}

// Conn - исходящая сторона клиентского соединения.
type Conn interface {
	Send(msg protocol.Message) error
	Close() error
}

// Options - зависимости сессии уровня процесса.
type Options struct {
	Speed      *entity.SpeedMultiplier
	BonusMap   terrain.Grid
	Rand       *rand.Rand
	Logger     *zap.SugaredLogger
	Activation Activation
	// WaitGreet: сессия не тикает, пока Greet не отправил карту.
	WaitGreet  bool
}

// Session - одна игра: карта, один-два игрока, враги, фрукты и режим.
// Состояние меняет только Update; остальные горутины пишут в inbox.
type Session struct {
	id     string
	conn   Conn
	inbox  chan any
	logger *zap.SugaredLogger

	speed      *entity.SpeedMultiplier
	rng        *rand.Rand
	activation Activation

	template      terrain.Grid
	bonusTemplate terrain.Grid
	grid          terrain.Grid
	blocks        *terrain.DestroyedBlocks

	players  [2]*player.Player
	p2Active bool

	enemies []*entity.Entity
	fruits  []*entity.Entity

	mode        Mode
	bonusPlayer int
	bonusStart  time.Time

	mapDirty bool
	greeted  atomic.Bool
	active   atomic.Bool
	closeOne sync.Once

	statsMu sync.Mutex
	stats   Stats
}

// New создаёт сессию с первым игроком на стартовой позиции.
func New(id string, conn Conn, opts Options) *Session {
	if opts.Speed == nil {
		opts.Speed = entity.NewSpeedMultiplier()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	tpl := terrain.Standard()
	if opts.BonusMap == nil {
		opts.BonusMap = mapgen.NewGenerator(mapgen.DefaultSeed).Bonus(tpl.Width(), tpl.Height())
	}
	s := &Session{
		id:            id,
		conn:          conn,
		inbox:         make(chan any, InboxSize),
		logger:        opts.Logger.With("session", id),
		speed:         opts.Speed,
		rng:           opts.Rand,
		activation:    opts.Activation,
		template:      tpl,
		bonusTemplate: opts.BonusMap,
		grid:          tpl.Clone(),
		blocks:        terrain.NewDestroyedBlocks(terrain.RegenDelay),
	}
	s.players[0] = player.New(1, terrain.Player1Start)
	s.greeted.Store(!opts.WaitGreet)
	s.active.Store(true)
	s.publishStats()
	return s
}

func (s *Session) ID() string { return s.id }

// Active - сессия жива и должна тикать.
func (s *Session) Active() bool { return s.active.Load() }

// Greet отправляет карту сразу после подключения. Сессия с WaitGreet
// до успешного Greet пропускает тики, поэтому MAP всегда уходит первым.
func (s *Session) Greet() error {
	if err := s.conn.Send(protocol.NewMap(s.id, s.grid.Clone())); err != nil {
		return err
	}
	s.greeted.Store(true)
	return nil
}

// Stop деактивирует сессию и закрывает соединение. Повторные вызовы безопасны.
func (s *Session) Stop() {
	s.active.Store(false)
	s.closeOne.Do(func() {
		if err := s.conn.Close(); err != nil {
			s.logger.Debugf("close connection: %v", err)
		}
	})
}

// Enqueue кладёт команду клиента в очередь. При переполнении команда отбрасывается.
func (s *Session) Enqueue(cmd protocol.Command) bool {
	return s.offer(cmd)
}

// RequestSpawn ставит в очередь появление сущности.
func (s *Session) RequestSpawn(req SpawnRequest) bool {
	return s.offer(req)
}

func (s *Session) offer(msg any) bool {
	select {
	case s.inbox <- msg:
		return true
	default:
		s.logger.Debugf("inbox full, dropping %T", msg)
		return false
	}
}

// Update выполняет один тик сессии.
func (s *Session) Update(now time.Time) {
	if !s.Active() || !s.greeted.Load() {
		return
	}
	s.drain(now)

	if s.anyAlive() {
		s.tickPlayers(now)
		s.tickEntities(now)
		s.resolveCollisions(now)
		if s.mode == ModeNormal {
			s.checkFloorGap(now)
			s.checkBonusEntry(now)
		}
		if s.blocks.Regenerate(s.grid, now) > 0 {
			s.mapDirty = true
		}
	}
	// Смерть бонусного игрока завершает фазу даже без живых игроков.
	if s.mode == ModeBonus {
		s.checkBonusExit(now)
	}

	s.flush(now)
	s.publishStats()
}

func (s *Session) drain(now time.Time) {
	for {
		select {
		case msg := <-s.inbox:
			s.handle(msg, now)
		default:
			return
		}
	}
}

func (s *Session) handle(msg any, now time.Time) {
	switch m := msg.(type) {
	case protocol.Command:
		s.handleCommand(m, now)
	case SpawnRequest:
		if err := s.spawn(m, now); err != nil {
			s.logger.Debugf("spawn %v: %v", m.Kind, err)
		}
	default:
		s.logger.Warnf("unexpected inbox message %T", msg)
	}
}

func (s *Session) handleCommand(cmd protocol.Command, now time.Time) {
	if cmd.Restart {
		s.restart()
		return
	}
	if cmd.Action == player.ActionNone {
		return
	}
	if !s.p2Active && (cmd.Player == 2 || s.activation == ActivateAny) {
		s.activatePlayer2()
	}
	p := s.configured(cmd.Player)
	if p == nil {
		return
	}
	if p.ApplyInput(cmd.Action, now) {
		s.attack(p, now)
	}
}

func (s *Session) activatePlayer2() {
	s.players[1] = player.New(2, s.spawnCell(2))
	s.p2Active = true
	s.logger.Infof("player 2 joined")
}

// configured возвращает игрока id, если он участвует в игре.
func (s *Session) configured(id int) *player.Player {
	switch {
	case id == 1:
		return s.players[0]
	case id == 2 && s.p2Active:
		return s.players[1]
	}
	return nil
}

func (s *Session) configuredPlayers() []*player.Player {
	if s.p2Active {
		return []*player.Player{s.players[0], s.players[1]}
	}
	return []*player.Player{s.players[0]}
}

func (s *Session) anyAlive() bool {
	for _, p := range s.configuredPlayers() {
		if p.Alive() {
			return true
		}
	}
	return false
}

func (s *Session) spawnCell(id int) terrain.Cell {
	if s.mode == ModeBonus {
		start := mapgen.BonusStart(s.grid)
		if id != s.bonusPlayer {
			start.X++
		}
		return start
	}
	if id == 2 {
		return terrain.Player2Start
	}
	return terrain.Player1Start
}

func (s *Session) attack(p *player.Player, now time.Time) {
	if p.BreakBlocks(s.grid, s.blocks, now) > 0 {
		s.mapDirty = true
	}
	for _, e := range s.enemies {
		if !e.Active || !p.InHitRange(e.X, e.Y) {
			continue
		}
		hit := e.OnAttacked()
		p.Score += hit.Points
	}
	s.enemies = pruneInactive(s.enemies)
}

func (s *Session) tickPlayers(now time.Time) {
	for _, p := range s.configuredPlayers() {
		p.Tick(s.grid, now)
	}
}

func (s *Session) env(now time.Time) entity.Env {
	return entity.Env{Grid: s.grid, Speed: s.speed.Get(), Rand: s.rng, Now: now}
}

func (s *Session) tickEntities(now time.Time) {
	env := s.env(now)
	kept := s.enemies[:0]
	for _, e := range s.enemies {
		e.Update(env)
		if e.Active && !e.Expired(now) {
			kept = append(kept, e)
		}
	}
	clearTail(s.enemies, len(kept))
	s.enemies = kept
}

func (s *Session) resolveCollisions(now time.Time) {
	for _, p := range s.configuredPlayers() {
		if !p.Alive() {
			continue
		}
		for _, e := range s.enemies {
			if !e.Active || !e.Touches(p.X, p.Y) {
				continue
			}
			switch {
			case e.Kind == entity.KindIce:
				p.TakeDamage(now, e.X)
				e.Active = false
			case e.CanDamage:
				if p.TakeDamage(now, e.X) && !p.Alive() {
					s.logger.Infof("player %d lost all lives", p.ID)
				}
			}
		}
		for _, f := range s.fruits {
			if f.Active && f.Touches(p.X, p.Y) {
				f.Active = false
				p.Score += f.Flavor.Points()
			}
		}
	}
	s.enemies = pruneInactive(s.enemies)
	s.fruits = pruneInactive(s.fruits)
}

// checkFloorGap: если игроки разошлись больше чем на этаж, нижний получает
// урон и переносится на этаж верхнего.
func (s *Session) checkFloorGap(now time.Time) {
	if !s.p2Active {
		return
	}
	p1, p2 := s.players[0], s.players[1]
	if !p1.Alive() || !p2.Alive() {
		return
	}
	_, y1 := p1.Tile()
	_, y2 := p2.Tile()
	f1, f2 := s.template.FloorBelow(y1), s.template.FloorBelow(y2)
	gap := f1 - f2
	if gap < 0 {
		gap = -gap
	}
	if gap <= FloorGapThreshold {
		return
	}
	upper, lower, floor := p1, p2, f1
	if f2 < f1 {
		upper, lower, floor = p2, p1, f2
	}
	lower.TakeDamage(now, upper.X)
	if c, ok := s.openTileOnFloor(floor, upper.X); ok {
		lower.Teleport(c)
	}
	s.logger.Debugf("player %d pulled up to floor row %d", lower.ID, floor)
}

// openTileOnFloor ищет ближайший к x свободный тайл над строкой floor.
func (s *Session) openTileOnFloor(floor int, x float64) (terrain.Cell, bool) {
	y := floor - 1
	cx := int(x + 0.5)
	for d := 0; d < s.grid.Width(); d++ {
		for _, tx := range []int{cx - d, cx + d} {
			if s.grid.IsBorder(tx, y) {
				continue
			}
			if s.grid.Empty(tx, y) && s.grid.Solid(tx, y+1) {
				return terrain.Cell{X: tx, Y: y}, true
			}
		}
	}
	return terrain.Cell{}, false
}

func (s *Session) checkBonusEntry(now time.Time) {
	for _, p := range s.configuredPlayers() {
		if !p.Alive() {
			continue
		}
		tx, ty := p.Tile()
		if s.grid.NearBonus(tx, ty) {
			s.enterBonus(p.ID, now)
			return
		}
	}
}

func (s *Session) enterBonus(id int, now time.Time) {
	s.mode = ModeBonus
	s.bonusPlayer = id
	s.bonusStart = now
	s.grid = s.bonusTemplate.Clone()
	s.clearWorld()
	for _, p := range s.configuredPlayers() {
		p.Teleport(s.spawnCell(p.ID))
	}
	s.mapDirty = true
	s.logger.Infof("player %d entered bonus phase", id)
}

func (s *Session) checkBonusExit(now time.Time) {
	bp := s.configured(s.bonusPlayer)
	if bp == nil || !bp.Alive() || now.Sub(s.bonusStart) >= BonusDuration {
		s.exitBonus()
	}
}

func (s *Session) exitBonus() {
	bonusID := s.bonusPlayer
	s.mode = ModeNormal
	s.bonusPlayer = 0
	s.grid = s.template.Clone()
	s.clearWorld()

	for _, p := range s.configuredPlayers() {
		if p.ID == bonusID {
			p.AddLife()
		} else {
			p.Lives = player.StartLives
		}
		p.Teleport(s.spawnCell(p.ID))
		p.Invulnerable = false
		p.LastDamage = time.Time{}
	}
	speed := s.speed.Increase()
	s.mapDirty = true
	s.logger.Infof("bonus phase finished, enemy speed x%.1f", speed)
}

// restart сбрасывает сессию целиком, в том числе после смерти всех игроков.
func (s *Session) restart() {
	if s.mode == ModeBonus {
		s.exitBonus()
	}
	for _, p := range s.configuredPlayers() {
		p.Reset(s.spawnCell(p.ID))
	}
	s.speed.Reset()
	s.grid = s.template.Clone()
	s.clearWorld()
	s.mapDirty = true
	s.logger.Infof("session restarted")
}

func (s *Session) clearWorld() {
	s.enemies = nil
	s.fruits = nil
	s.blocks.Clear()
}

func (s *Session) flush(now time.Time) {
	if s.mapDirty {
		if err := s.conn.Send(protocol.NewMap(s.id, s.grid.Clone())); err != nil {
			s.fail(err)
			return
		}
		s.mapDirty = false
	}
	var msg protocol.Message
	if s.anyAlive() {
		msg = s.Snapshot(now)
	} else {
		msg = protocol.NewGameOver(s.id, gameOverText)
	}
	if err := s.conn.Send(msg); err != nil {
		s.fail(err)
	}
}

func (s *Session) fail(err error) {
	s.logger.Warnf("send failed, deactivating: %v", err)
	s.active.Store(false)
}

func pruneInactive(list []*entity.Entity) []*entity.Entity {
	kept := list[:0]
	for _, e := range list {
		if e.Active {
			kept = append(kept, e)
		}
	}
	clearTail(list, len(kept))
	return kept
}

func clearTail(list []*entity.Entity, from int) {
	for i := from; i < len(list); i++ {
		list[i] = nil
	}
}
