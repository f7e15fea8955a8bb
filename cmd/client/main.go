package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nsf/termbox-go"

	"github.com/annelo/climber-server/internal/player"
	"github.com/annelo/climber-server/internal/protocol"
	"github.com/annelo/climber-server/internal/terrain"
)

var (
	serverAddr = flag.String("server", "localhost:8888", "Адрес сервера и порт")
	debugMode  = flag.Bool("debug", false, "Режим отладки (показать подробную информацию)")
)

// ClientState - последнее известное состояние сессии.
type ClientState struct {
	mu             sync.RWMutex
	sessionID      string
	tiles          [][]int
	update         *protocol.PlayerUpdate
	gameOver       bool
	serverMessages []string
	received       int
	lastUpdate     time.Time
}

func newClientState() *ClientState {
	return &ClientState{serverMessages: []string{"Подключение к серверу..."}}
}

var tileSymbols = map[int]rune{
	terrain.TileEmpty: ' ',
	terrain.TileSolid: '#',
	terrain.TileBonus: '$',
}

var tileColors = map[int]termbox.Attribute{
	terrain.TileEmpty: termbox.ColorDefault,
	terrain.TileSolid: termbox.ColorWhite,
	terrain.TileBonus: termbox.ColorYellow,
}

var enemySymbols = map[string]rune{"Ground": 'g', "Bird": 'v', "Ice": '!'}

// addServerMessage добавляет сообщение в начало ленты, хранится не больше пяти.
func (cs *ClientState) addServerMessage(message string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.serverMessages = append([]string{message}, cs.serverMessages...)
	if len(cs.serverMessages) > 5 {
		cs.serverMessages = cs.serverMessages[:5]
	}
}

// sender пишет токены на сервер по одному в строке.
type sender struct {
	mu   sync.Mutex
	conn net.Conn
}

func (s *sender) send(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.conn, "%s\n", token); err != nil {
		log.Printf("Ошибка отправки %s: %v", token, err)
	}
}

// processInput обрабатывает ввод с клавиатуры
func processInput(cs *ClientState, out *sender) {
	for {
		switch ev := termbox.PollEvent(); ev.Type {
		case termbox.EventKey:
			switch ev.Key {
			case termbox.KeyEsc, termbox.KeyCtrlC:
				return
			case termbox.KeyArrowLeft:
				out.send(protocol.Token(2, player.ActionLeft))
			case termbox.KeyArrowRight:
				out.send(protocol.Token(2, player.ActionRight))
			case termbox.KeyArrowUp:
				out.send(protocol.Token(2, player.ActionJump))
			}

			switch ev.Ch {
			case 'a', 'A':
				out.send(protocol.Token(1, player.ActionLeft))
			case 'd', 'D':
				out.send(protocol.Token(1, player.ActionRight))
			case 'w', 'W':
				out.send(protocol.Token(1, player.ActionJump))
			case 'x', 'X':
				out.send(protocol.Token(1, player.ActionAttack))
			case 'p', 'P':
				out.send(protocol.Token(2, player.ActionAttack))
			case 'r', 'R':
				out.send("RESTART")
			case 'q':
				return
			}
		case termbox.EventInterrupt:
			return
		case termbox.EventError:
			log.Fatalf("Ошибка терминала: %v", ev.Err)
		}
	}
}

// renderWorld рисует карту, игроков, врагов и фрукты.
func renderWorld(cs *ClientState) {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	width, height := termbox.Size()

	cs.mu.RLock()
	defer cs.mu.RUnlock()

	infoY := 0
	drawText(0, infoY, width, statusLine(cs), termbox.ColorWhite, termbox.ColorDefault)
	infoY++
	if *debugMode {
		debugInfo := fmt.Sprintf("Сессия: %s | Сообщений: %d | Последнее: %s",
			cs.sessionID, cs.received, cs.lastUpdate.Format("15:04:05.000"))
		drawText(0, infoY, width, debugInfo, termbox.ColorYellow, termbox.ColorDefault)
		infoY++
	}
	for x := 0; x < width; x++ {
		termbox.SetCell(x, infoY, '-', termbox.ColorWhite, termbox.ColorDefault)
	}
	startY := infoY + 1

	for y, row := range cs.tiles {
		for x, t := range row {
			termbox.SetCell(x, y+startY, tileSymbols[t], tileColors[t], termbox.ColorDefault)
		}
	}

	if u := cs.update; u != nil {
		for _, f := range u.Fruits {
			if f.IsActive {
				setCell(f.X, f.Y, startY, 'o', termbox.ColorGreen)
			}
		}
		for _, e := range u.Enemies {
			if e.IsActive {
				setCell(e.X, e.Y, startY, enemySymbols[e.EnemyType], termbox.ColorMagenta)
			}
		}
		drawPlayer(u.Player1, '1', termbox.ColorRed, startY)
		if u.IsPlayer2Active && u.Player2 != nil {
			drawPlayer(*u.Player2, '2', termbox.ColorCyan, startY)
		}
	}

	msgY := height - 6
	drawText(0, msgY, width, "----- Сообщения -----", termbox.ColorWhite, termbox.ColorDefault)
	for i, msg := range cs.serverMessages {
		drawText(0, msgY+1+i, width, msg, termbox.ColorCyan, termbox.ColorDefault)
	}

	instructions := "P1: A/D/W/X  P2: стрелки/P  R - рестарт  Q/Esc - выход"
	drawText(0, height-1, width, instructions, termbox.ColorWhite, termbox.ColorDefault)
	termbox.Flush()
}

func statusLine(cs *ClientState) string {
	u := cs.update
	if u == nil {
		return "Ожидание состояния..."
	}
	s := fmt.Sprintf("P1: ♥%d %d", u.Player1.Lives, u.Player1.Score)
	if u.IsPlayer2Active && u.Player2 != nil {
		s += fmt.Sprintf(" | P2: ♥%d %d", u.Player2.Lives, u.Player2.Score)
	}
	if u.IsBonusPhase {
		s += fmt.Sprintf(" | БОНУС %ds", u.BonusTimeRemaining/1000)
	}
	if cs.gameOver {
		s += " | GAME OVER (R)"
	}
	return s
}

func drawPlayer(p protocol.PlayerState, ch rune, fg termbox.Attribute, startY int) {
	if !p.IsAlive {
		return
	}
	if p.IsInvulnerable && time.Now().UnixMilli()/150%2 == 0 {
		return
	}
	if p.IsAttacking {
		fg |= termbox.AttrBold
	}
	setCell(p.X, p.Y, startY, ch, fg)
}

func setCell(x, y float64, startY int, ch rune, fg termbox.Attribute) {
	termbox.SetCell(int(math.Round(x)), int(math.Round(y))+startY, ch, fg, termbox.ColorDefault)
}

// drawText отображает текст с ограничением по ширине
func drawText(x, y, maxWidth int, text string, fg, bg termbox.Attribute) {
	i := 0
	for _, ch := range text {
		if i >= maxWidth {
			return
		}
		termbox.SetCell(x+i, y, ch, fg, bg)
		i++
	}
}

// processServerMessages читает сообщения сервера до разрыва соединения.
func processServerMessages(cs *ClientState, r *bufio.Reader, done chan<- struct{}) {
	defer close(done)
	for {
		msg, err := protocol.Decode(r)
		if err != nil {
			cs.addServerMessage(fmt.Sprintf("Соединение закрыто: %v", err))
			return
		}
		cs.mu.Lock()
		cs.received++
		cs.lastUpdate = time.Now()
		cs.mu.Unlock()

		switch m := msg.(type) {
		case protocol.MapMessage:
			cs.mu.Lock()
			first := cs.sessionID == ""
			cs.sessionID = m.SessionID
			cs.tiles = m.Map
			cs.mu.Unlock()
			if first {
				cs.addServerMessage(fmt.Sprintf("Успешное подключение! Сессия: %s", m.SessionID))
			}
		case protocol.PlayerUpdate:
			cs.mu.Lock()
			cs.update = &m
			cs.gameOver = false
			cs.mu.Unlock()
		case protocol.GameOver:
			cs.mu.Lock()
			already := cs.gameOver
			cs.gameOver = true
			cs.mu.Unlock()
			if !already {
				cs.addServerMessage(m.Message)
			}
		case protocol.ErrorMessage:
			cs.addServerMessage("Ошибка: " + m.Message)
		}
	}
}

func main() {
	flag.Parse()

	conn, err := net.DialTimeout("tcp", *serverAddr, 5*time.Second)
	if err != nil {
		log.Fatalf("Не удалось подключиться к серверу: %v", err)
	}
	defer conn.Close()

	if err := termbox.Init(); err != nil {
		log.Fatalf("Не удалось инициализировать терминал: %v", err)
	}
	defer termbox.Close()

	cs := newClientState()
	out := &sender{conn: conn}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		termbox.Interrupt()
	}()

	done := make(chan struct{})
	go processServerMessages(cs, bufio.NewReader(conn), done)

	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				renderWorld(cs)
				return
			case <-ticker.C:
				renderWorld(cs)
			}
		}
	}()

	processInput(cs, out)
	log.Println("Клиент завершает работу")
}
