package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// ErrPermanent marks a message that can never be processed. It is logged
// and committed instead of retried.
var ErrPermanent = errors.New("permanent failure")

// Handler harus return nil hanya jika proses sukses & boleh commit offset.
type Handler func(ctx context.Context, m kafka.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r        messageReader
	workers  int
	maxTries uint
	log      zerolog.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, log zerolog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, workers, log)
}

func newConsumer(r messageReader, workers int, log zerolog.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, maxTries: 5, log: log.With().Str("component", "kafka.consumer").Logger()}
}

// Start blocks until ctx is cancelled, fetching fails, or a message exhausts
// its retries. Messages of one partition go to the same worker and are
// handled and committed in offset order. Transient handler errors are
// retried with backoff; a message that still fails is left uncommitted and
// Start returns its error, so nothing after it on that partition is committed
// and a restart redelivers from it.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	fetchCtx, stop := context.WithCancel(ctx)
	defer stop()

	var (
		once    sync.Once
		failErr error
	)
	fail := func(err error) {
		once.Do(func() {
			failErr = err
			stop()
		})
	}

	lanes := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 1)
		wg.Add(1)
		go func(lane <-chan kafka.Message) {
			defer wg.Done()
			blocked := false
			for m := range lane {
				if blocked {
					continue // drain; uncommitted messages get redelivered
				}
				if err := c.process(ctx, h, m); err != nil {
					blocked = true
					fail(err)
				}
			}
		}(lanes[i])
	}

	err := c.dispatch(fetchCtx, lanes)
	for _, lane := range lanes {
		close(lane)
	}
	wg.Wait()

	switch {
	case failErr != nil:
		return failErr
	case ctx.Err() != nil:
		return nil
	}
	return err
}

func (c *Consumer) dispatch(ctx context.Context, lanes []chan kafka.Message) error {
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case lanes[m.Partition%len(lanes)] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

// process returns an error only when m failed for good and must not be
// committed.
func (c *Consumer) process(ctx context.Context, h Handler, m kafka.Message) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := h(ctx, m)
		if errors.Is(err, ErrPermanent) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(c.maxTries))

	lg := c.log.With().Str("topic", m.Topic).Int("partition", m.Partition).Int64("offset", m.Offset).Logger()
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return nil
	case errors.Is(err, ErrPermanent):
		lg.Error().Err(err).Msg("skipping unprocessable message")
	default:
		lg.Error().Err(err).Msg("handler failed, stopping before commit")
		return fmt.Errorf("partition %d offset %d: %w", m.Partition, m.Offset, err)
	}
	if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		lg.Error().Err(err).Msg("commit")
	}
	return nil
}
