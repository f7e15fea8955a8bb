package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annelo/climber-server/internal/protocol"
)

var (
	serverAddr   = flag.String("addr", "localhost:8888", "TCP адрес сервера")
	clientsCount = flag.Int("n", 2, "Количество эмулируемых клиентов")
	duration     = flag.Duration("duration", 30*time.Second, "Длительность теста")
	rate         = flag.Duration("rate", 100*time.Millisecond, "Интервал между командами бота")
)

var botTokens = []string{"A", "D", "W", "X", "LEFT", "RIGHT", "JUMP", "P"}

type counters struct {
	updates  atomic.Int64
	maps     atomic.Int64
	gameOver atomic.Int64
	rejected atomic.Int64
}

func main() {
	flag.Parse()
	log.Printf("Запускаем bClient: %d клиентов на %s в течение %s", *clientsCount, *serverAddr, *duration)

	var wg sync.WaitGroup
	stopCtx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	var c counters
	for i := 0; i < *clientsCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runClient(stopCtx, id, &c)
		}(i)
	}

	wg.Wait()
	log.Printf("bClient завершил работу: updates=%d maps=%d game_over=%d rejected=%d",
		c.updates.Load(), c.maps.Load(), c.gameOver.Load(), c.rejected.Load())
}

func runClient(ctx context.Context, id int, c *counters) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", *serverAddr)
	if err != nil {
		log.Printf("[client %d] dial error: %v", id, err)
		return
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	// читаем ответы сервера, пока соединение открыто
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		r := bufio.NewReader(conn)
		for {
			msg, err := protocol.Decode(r)
			if err != nil {
				return
			}
			switch m := msg.(type) {
			case protocol.MapMessage:
				c.maps.Add(1)
			case protocol.PlayerUpdate:
				c.updates.Add(1)
			case protocol.GameOver:
				if c.gameOver.Add(1)%100 == 1 {
					fmt.Fprintf(conn, "RESTART\n")
				}
			case protocol.ErrorMessage:
				c.rejected.Add(1)
				log.Printf("[client %d] rejected: %s", id, m.Message)
				return
			}
		}
	}()

	randSrc := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
	ticker := time.NewTicker(*rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-readDone:
			return
		case <-ticker.C:
			token := botTokens[randSrc.Intn(len(botTokens))]
			if _, err := fmt.Fprintf(conn, "%s\n", token); err != nil {
				log.Printf("[client %d] send error: %v", id, err)
				return
			}
		}
	}
}
