package fairdraw

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_CommitHash_FixedVectors(t *testing.T) {
	require.Equal(t,
		"85337816d263d362acb23a4255a636191075c2a90c47f2ee6db3362f7df11203",
		CommitHash([]string{"a1", "b2"}))

	require.Equal(t,
		"4cc8273f848679aba38bf684047e95367eef563d2c59367078dbcbf211cd8f68",
		CommitHash([]string{"0x91", "b777", "f3aC"}))
}

func Test_Order_IsInsertionOrderIndependent(t *testing.T) {
	a := Order([]string{"b2", "a1"})
	b := Order([]string{"a1", "b2"})
	require.Equal(t, []string{"a1", "b2"}, a)
	require.Equal(t, a, b)
	require.Equal(t, CommitHash(a), CommitHash(b))
}

func Test_Draw_FixedVectors(t *testing.T) {
	// Round 1, two tickets observed out of order.
	ordered := Order([]string{"b2", "a1"})
	commit := CommitHash(ordered)
	require.Equal(t,
		"861ad5d4e903b830bbcee803e357193de049f17b9accffcf7c0e49b18544ac98",
		Entropy(1, commit, "b2"))

	index, err := Draw(1, commit, ordered)
	require.NoError(t, err)
	require.Equal(t, 0, index)
	require.Equal(t, "a1", ordered[index])

	// Round 7, three tickets.
	ordered = Order([]string{"f3aC", "0x91", "b777"})
	commit = CommitHash(ordered)
	index, err = Draw(7, commit, ordered)
	require.NoError(t, err)
	require.Equal(t, 2, index)
	require.Equal(t, "f3aC", ordered[index])
}

func Test_Draw_SingleTicketAlwaysWins(t *testing.T) {
	ordered := []string{"deadbeef"}
	commit := CommitHash(ordered)
	require.Equal(t,
		"2baf1f40105d9501fe319a8ec463fdf4325a2a5df445adf3f572f626253678c9",
		commit)

	index, err := Draw(42, commit, ordered)
	require.NoError(t, err)
	require.Equal(t, 0, index)
}

func Test_Draw_IsDeterministic(t *testing.T) {
	ordered := Order([]string{"t5", "t3", "t9", "t1", "t7"})
	commit := CommitHash(ordered)

	first, err := Draw(12, commit, ordered)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Draw(12, commit, ordered)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func Test_Draw_NoTickets(t *testing.T) {
	_, err := Draw(1, "", nil)
	require.ErrorIs(t, err, ErrNoTickets)
}
