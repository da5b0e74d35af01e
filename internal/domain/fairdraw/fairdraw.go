package fairdraw

import (
	"errors"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/tonlotto/backend/pkg/crypto"
)

// The fair draw binds a round to its ticket set before a winner is known.
// When a round is stopped, the commit hash over the ordered tx hashes is
// published. The winner index is then derived only from already-published
// values, so anyone holding the public ticket list can recompute both the
// commit hash and the winner.

var ErrNoTickets = errors.New("no tickets to draw from")

// Order returns the canonical committed order of a ticket set: tx hashes
// sorted ascending. Storage insertion order never matters.
func Order(txHashes []string) []string {
	ordered := make([]string, len(txHashes))
	copy(ordered, txHashes)
	sort.Strings(ordered)
	return ordered
}

// CommitHash hashes the concatenation of the ordered tx hashes.
func CommitHash(orderedTxHashes []string) string {
	return crypto.SHA256Hex([]byte(strings.Join(orderedTxHashes, "")))
}

// Entropy builds the winner-selection entropy from committed values only:
// the order-last tx hash, the commit hash, and the round id.
func Entropy(roundID int64, commitHash, lastTxHash string) string {
	return crypto.SHA256Hex([]byte(lastTxHash + commitHash + strconv.FormatInt(roundID, 10)))
}

// WinnerIndex interprets the entropy hash as a big hex integer modulo the
// ticket count. It is a pure function of its arguments.
func WinnerIndex(entropy string, ticketCount int) (int, error) {
	if ticketCount <= 0 {
		return 0, ErrNoTickets
	}

	n, ok := new(big.Int).SetString(entropy, 16)
	if !ok {
		return 0, errors.New("entropy is not a hex string")
	}

	return int(n.Mod(n, big.NewInt(int64(ticketCount))).Int64()), nil
}

// Draw runs the full selection over an ordered ticket set and returns the
// winner position.
func Draw(roundID int64, commitHash string, orderedTxHashes []string) (int, error) {
	if len(orderedTxHashes) == 0 {
		return 0, ErrNoTickets
	}

	entropy := Entropy(roundID, commitHash, orderedTxHashes[len(orderedTxHashes)-1])
	return WinnerIndex(entropy, len(orderedTxHashes))
}
