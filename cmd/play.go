package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/jsphweid/simon/constants"
	"github.com/jsphweid/simon/game"
	"github.com/jsphweid/simon/midi"
	"github.com/jsphweid/simon/model"
	"github.com/jsphweid/simon/resource"
	"github.com/jsphweid/simon/sample"
	"github.com/spf13/cobra"
)

var (
	playPort  int
	playLevel int
	playSave  string
)

func init() {
	playCmd.Flags().IntVar(&playPort, "port", -1, "midi output port number as listed by the ports command, -1 rings the terminal bell instead")
	playCmd.Flags().IntVar(&playLevel, "level", 0, "starting level (default $SIMON_START_LEVEL or 1)")
	playCmd.Flags().StringVar(&playSave, "save", "", "write the last round's notes to this .mid file when the game ends")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Plays a game in the terminal",
	Long: `Plays a game in the terminal. Lit boxes are printed, type the keys
back (e.g. "cde" then enter) when it is your turn.`,
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(play(cmd.InOrStdin(), cmd.OutOrStdout()))
	},
}

// terminal is shared by every box so lines are not interleaved.
type terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func (t *terminal) println(a ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, a...)
}

type terminalBox struct {
	key  model.Key
	term *terminal
}

func (b terminalBox) SetActive(active bool) {
	if active {
		b.term.println("  [" + strings.ToUpper(string(b.key)) + "]")
	}
}

type bell struct {
	term *terminal
}

func (b bell) SeekToStart() {}

func (b bell) PlayFromCurrentPosition() {
	b.term.mu.Lock()
	defer b.term.mu.Unlock()
	fmt.Fprint(b.term.out, "\a")
}

func play(in io.Reader, out io.Writer) error {
	term := &terminal{out: out}
	duration := constants.GetNoteDuration()

	audioFor := func(model.Key) (resource.Audio, error) {
		return bell{term: term}, nil
	}
	if playPort >= 0 {
		defer midi.Close()
		send, err := midi.OpenOut(playPort)
		if err != nil {
			return err
		}
		audioFor = func(key model.Key) (resource.Audio, error) {
			note, ok := midi.NoteFor(key)
			if !ok {
				return nil, fmt.Errorf("no midi note for key %v", key)
			}
			return midi.NewAudio(send, note, duration, func(err error) {
				logger.Error("midi", "err", err)
			}), nil
		}
	}

	level := playLevel
	if level < 1 {
		level = constants.GetStartLevel()
	}

	scores, err := openScoreStore()
	if err != nil {
		return err
	}
	factory := newSessionFactory(SessionOptions{
		NoteDuration: duration,
		StartLevel:   level,
		Logger:       logger,
	}, func(key model.Key) resource.Element {
		return terminalBox{key: key, term: term}
	}, audioFor)
	manager := game.NewManager(factory, scores, game.ManagerConfig{Logger: logger})

	s, err := manager.Create()
	if err != nil {
		return err
	}
	// closed after the game over line is printed
	over := make(chan struct{})
	s.Subscribe(func(e game.Event) {
		if e.Type != game.PhaseChanged {
			return
		}
		switch e.Phase {
		case game.AwaitingPlayback:
			term.println(fmt.Sprintf("Level %v, listen...", e.Level))
		case game.AwaitingInput:
			term.println(fmt.Sprintf("Your turn, %v notes:", e.Level))
		case game.RoundComplete:
			term.println("Correct!")
		case game.GameOver:
			term.println(fmt.Sprintf("Game over (%v). Score: %v", e.Reason, e.Score))
			close(over)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.Start(); err != nil {
		return err
	}
	go readPresses(in, s)

	select {
	case <-over:
	case <-ctx.Done():
		s.End()
		<-over
	}

	snap := s.Snapshot()
	if len(snap.Played) == 0 {
		return nil
	}
	term.println(fmt.Sprintf("The notes were: %v", snap.Played))
	if playSave == "" {
		return nil
	}
	f, err := os.Create(playSave)
	if err != nil {
		return err
	}
	defer f.Close()
	return sample.Write(f, snap.Played, duration)
}

// readPresses ends the session at EOF.
func readPresses(in io.Reader, s *game.Session) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		for _, r := range strings.ToLower(scanner.Text()) {
			key := model.Key(string(r))
			if !model.IsKey(key) {
				continue
			}
			s.Press(key)
		}
	}
	s.End()
}
