package board

import (
	"math/rand"

	"chesskit/internal/core"
)

var standardBackRank = [Size]core.PieceType{
	core.Rook, core.Knight, core.Bishop, core.Queen,
	core.King, core.Bishop, core.Knight, core.Rook,
}

// StandardSetup builds the standard starting position.
func StandardSetup() Board {
	return setup(standardBackRank)
}

// ShuffledSetup builds a starting position with a uniformly shuffled
// back rank, mirrored for both colors. Fisher-Yates via rand.Shuffle
// keeps every permutation equally likely.
func ShuffledSetup(r *rand.Rand) Board {
	rank := standardBackRank
	r.Shuffle(Size, func(i, j int) {
		rank[i], rank[j] = rank[j], rank[i]
	})
	return setup(rank)
}

func setup(backRank [Size]core.PieceType) Board {
	pieces := make(map[Position]Piece, 4*Size)
	for col := 0; col < Size; col++ {
		pieces[Pos(0, col)] = Piece{Color: core.ColorWhite, Type: backRank[col]}
		pieces[Pos(1, col)] = Piece{Color: core.ColorWhite, Type: core.Pawn}
		pieces[Pos(Size-2, col)] = Piece{Color: core.ColorBlack, Type: core.Pawn}
		pieces[Pos(Size-1, col)] = Piece{Color: core.ColorBlack, Type: backRank[col]}
	}
	return Board{pieces: pieces}
}
