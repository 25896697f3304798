package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/material-scanner/internal/adapter/decoder"
	"github.com/rl1809/material-scanner/internal/core/domain"
)

// scan_burst publishes decode events the way a camera does when a code
// stays in frame: each code is repeated several times in quick succession.
// Against a server using the redis decoder, only one material per code
// should land in the scan buffer.
func main() {
	redisAddr := flag.String("redis", "localhost:6379", "redis address")
	channel := flag.String("channel", decoder.DefaultChannel, "pub/sub channel")
	apiURL := flag.String("api", "http://localhost:8080", "scanner HTTP API, empty to skip the state check")
	codes := flag.Int("codes", 5, "distinct codes to publish")
	repeat := flag.Int("repeat", 10, "events per code")
	frame := flag.Duration("frame", 100*time.Millisecond, "delay between repeated events")
	gap := flag.Duration("gap", 1500*time.Millisecond, "delay between codes")
	flag.Parse()

	log := logrus.New()
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("failed to connect redis")
	}
	defer rdb.Close()

	var published, delivered int64
	start := time.Now()

	for i := 0; i < *codes; i++ {
		code := fmt.Sprintf("BURST-%d-%03d", start.Unix(), i)
		payload, _ := json.Marshal(domain.DecodeEvent{Text: code})

		for j := 0; j < *repeat; j++ {
			n, err := rdb.Publish(ctx, *channel, payload).Result()
			if err != nil {
				log.WithError(err).Error("publish failed")
				continue
			}
			published++
			delivered += n
			time.Sleep(*frame)
		}
		time.Sleep(*gap)
	}

	fmt.Println("========== SCAN BURST RESULTS ==========")
	fmt.Printf("Codes:       %d\n", *codes)
	fmt.Printf("Published:   %d\n", published)
	fmt.Printf("Subscribers: %d deliveries\n", delivered)
	fmt.Printf("Duration:    %v\n", time.Since(start))

	if *apiURL == "" {
		return
	}

	resp, err := http.Get(*apiURL + "/api/state")
	if err != nil {
		log.WithError(err).Fatal("state request failed")
	}
	defer resp.Body.Close()

	var state struct {
		Mode   string            `json:"mode"`
		Buffer []domain.Material `json:"buffer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		log.WithError(err).Fatal("invalid state response")
	}
	fmt.Printf("Mode:        %s\n", state.Mode)
	fmt.Printf("Buffered:    %d (expected %d)\n", len(state.Buffer), *codes)
	fmt.Println("========================================")
}
