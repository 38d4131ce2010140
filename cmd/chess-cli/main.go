// Package main implements a local two-player terminal chess game
// driven directly by the rules engine, without a server.
package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"chesskit/internal/board"
	"chesskit/internal/core"
	"chesskit/internal/rules"

	"github.com/chzyer/readline"
)

const (
	reset  = "\033[0m"
	red    = "\033[31m"
	cyan   = "\033[36m"
	yellow = "\033[33m"
	blue   = "\033[34m"
)

var promotionLetters = map[byte]core.PieceType{
	'q': core.Queen,
	'r': core.Rook,
	'b': core.Bishop,
	'n': core.Knight,
}

type session struct {
	rulebook rules.Rulebook
	states   []rules.GameState
}

func main() {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "chess> ",
		HistoryFile:     ".chess_cli_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", red, err.Error(), reset)
		os.Exit(1)
	}
	defer rl.Close()

	s := &session{rulebook: rules.New()}
	s.reset("standard")

	fmt.Printf("%sLocal chess%s\n", cyan, reset)
	fmt.Printf("Type 'help' for commands\n\n")
	s.showBoard()

	for {
		rl.SetPrompt(s.prompt())

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(strings.ToLower(line))
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" || line == "x" {
			break
		}

		s.execute(line)
	}
}

func (s *session) current() rules.GameState {
	return s.states[len(s.states)-1]
}

func (s *session) prompt() string {
	g := s.current()
	turn := blue + "White" + reset
	if g.Active == core.ColorBlack {
		turn = red + "Black" + reset
	}
	status := s.rulebook.GetStatus(g)
	if status == core.StatusPlaying {
		return fmt.Sprintf("chess [%s]> ", turn)
	}
	return fmt.Sprintf("chess [%s %s%s%s]> ", turn, yellow, status, reset)
}

func (s *session) reset(setup string) {
	var b board.Board
	if setup == "shuffled" {
		b = board.ShuffledSetup(rand.New(rand.NewSource(time.Now().UnixNano())))
	} else {
		b = board.StandardSetup()
	}
	g, err := rules.NewGame(b, core.ColorWhite)
	if err != nil {
		fmt.Printf("%s%s%s\n", red, err.Error(), reset)
		return
	}
	s.states = []rules.GameState{g}
}

func (s *session) execute(line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "help", "h", "?":
		s.showHelp()
	case "board", "b":
		s.showBoard()
	case "fen":
		fmt.Println(rules.EncodeFEN(s.current(), (len(s.states)-1)/2+1))
	case "status":
		fmt.Println(s.rulebook.GetStatus(s.current()))
	case "new":
		setup := "standard"
		if len(fields) > 1 {
			setup = fields[1]
		}
		if setup != "standard" && setup != "shuffled" {
			fmt.Printf("%sunknown setup: %s%s\n", red, setup, reset)
			return
		}
		s.reset(setup)
		s.showBoard()
	case "undo":
		if len(s.states) < 2 {
			fmt.Printf("%snothing to undo%s\n", red, reset)
			return
		}
		s.states = s.states[:len(s.states)-1]
		s.showBoard()
	case "moves", "m":
		if len(fields) < 2 {
			fmt.Printf("%susage: moves <square>%s\n", red, reset)
			return
		}
		s.showMoves(fields[1])
	default:
		s.tryMove(fields[0])
	}
}

func (s *session) showHelp() {
	fmt.Println("Commands:")
	fmt.Println("  e2e4, e7e8q      make a move (append q/r/b/n to promote)")
	fmt.Println("  moves <square>   list legal moves for the piece on a square")
	fmt.Println("  board            show the board")
	fmt.Println("  fen              print the position as FEN")
	fmt.Println("  status           print the game status")
	fmt.Println("  new [shuffled]   start a new game")
	fmt.Println("  undo             take back the last move")
	fmt.Println("  exit             quit")
}

func (s *session) showBoard() {
	fmt.Println(s.current().Board.ToASCII())
}

func (s *session) showMoves(square string) {
	pos, err := board.ParsePosition(square)
	if err != nil {
		fmt.Printf("%s%s%s\n", red, err.Error(), reset)
		return
	}

	updates := s.rulebook.GetUpdates(s.current(), pos)
	if len(updates) == 0 {
		fmt.Println("no legal moves")
		return
	}

	var dests []string
	for _, u := range updates {
		d := u.To.String()
		if u.Promotion != 0 {
			d += "=" + u.Promotion.String()
		}
		dests = append(dests, d)
	}
	fmt.Println(strings.Join(dests, " "))
}

func (s *session) tryMove(move string) {
	if len(move) != 4 && len(move) != 5 {
		fmt.Printf("%sunknown command: %s%s\n", red, move, reset)
		return
	}

	g := s.current()
	if status := s.rulebook.GetStatus(g); status == core.StatusCheckmate || status == core.StatusStalemate {
		fmt.Printf("%sgame over: %s%s\n", yellow, status, reset)
		return
	}

	from, err := board.ParsePosition(move[:2])
	if err != nil {
		fmt.Printf("%s%s%s\n", red, err.Error(), reset)
		return
	}
	to, err := board.ParsePosition(move[2:4])
	if err != nil {
		fmt.Printf("%s%s%s\n", red, err.Error(), reset)
		return
	}

	var promotion core.PieceType
	if len(move) == 5 {
		var ok bool
		promotion, ok = promotionLetters[move[4]]
		if !ok {
			fmt.Printf("%sinvalid promotion piece: %c%s\n", red, move[4], reset)
			return
		}
	}

	for _, u := range s.rulebook.GetUpdates(g, from) {
		if u.To == to && u.Promotion == promotion {
			s.states = append(s.states, u.State)
			s.showBoard()
			if status := s.rulebook.GetStatus(u.State); status != core.StatusPlaying {
				fmt.Printf("%s%s%s\n", yellow, status, reset)
			}
			return
		}
	}

	fmt.Printf("%sillegal move: %s%s\n", red, move, reset)
}
