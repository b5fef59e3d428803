package cmd

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/jsphweid/simon/clock"
	"github.com/jsphweid/simon/constants"
	"github.com/jsphweid/simon/db"
	"github.com/jsphweid/simon/game"
	"github.com/jsphweid/simon/model"
	"github.com/jsphweid/simon/notebox"
	"github.com/jsphweid/simon/resource"
)

type SessionOptions struct {
	NoteDuration time.Duration
	StartLevel   int
	// non-zero makes every session draw the same notes
	Seed      int64
	Scheduler clock.Scheduler
	Logger    *slog.Logger
}

func (o SessionOptions) config() game.Config {
	if o.NoteDuration <= 0 {
		o.NoteDuration = constants.NoteDuration
	}
	if o.Scheduler == nil {
		o.Scheduler = clock.Real{}
	}
	cfg := game.Config{
		NoteDuration: o.NoteDuration,
		StartLevel:   o.StartLevel,
		Scheduler:    o.Scheduler,
		Logger:       o.Logger,
	}
	if o.Seed != 0 {
		cfg.Rand = rand.New(rand.NewSource(o.Seed))
	}
	return cfg
}

// AudioFor picks the sound of a key's box.
type AudioFor func(key model.Key) (resource.Audio, error)

func silentAudio(model.Key) (resource.Audio, error) {
	return &resource.Silent{}, nil
}

// NewSessionFactory builds sessions whose boxes are in-memory indicators, the
// way a server tracks what each browser should show.
func NewSessionFactory(opts SessionOptions) game.Factory {
	return newSessionFactory(opts, func(model.Key) resource.Element { return &resource.Indicator{} }, silentAudio)
}

func newSessionFactory(opts SessionOptions, elementFor func(model.Key) resource.Element, audioFor AudioFor) game.Factory {
	return func(id string) (*game.Session, error) {
		cfg := opts.config()
		r := resource.NewRegistry()
		for _, key := range model.Keys {
			audio, err := audioFor(key)
			if err != nil {
				return nil, err
			}
			r.AddElement(resource.ElementID(key), elementFor(key))
			r.AddAudio(resource.AudioID(key), audio)
		}
		boxes, err := notebox.NewAll(model.Keys, r,
			notebox.WithScheduler(cfg.Scheduler),
			notebox.WithDuration(cfg.NoteDuration))
		if err != nil {
			return nil, err
		}
		return game.NewSession(id, boxes, cfg)
	}
}

func openScoreStore() (db.Store, error) {
	endpoint := constants.GetDynamoEndpoint()
	if endpoint == "" {
		logger.Info("SIMON_DYNAMODB_ENDPOINT not set, keeping scores in memory")
		return db.NewMemoryStore(), nil
	}
	logger.Info("storing scores in DynamoDB", "endpoint", endpoint, "table", constants.GetScoresTable())
	return db.NewDynamoStore(endpoint, constants.GetDynamoRegion(), constants.GetScoresTable())
}
