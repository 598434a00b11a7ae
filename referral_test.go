package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMilestoneReached(t *testing.T) {
	m := milestoneReached(4, 5)
	require.NotNil(t, m)
	require.Equal(t, 5, m.Threshold)
	require.Equal(t, 250, m.Bonus)
	require.Equal(t, "Bronze Recruiter", m.Badge)

	require.Nil(t, milestoneReached(5, 6))
	require.Nil(t, milestoneReached(0, 1))
	require.Nil(t, milestoneReached(100, 101))

	m = milestoneReached(99, 100)
	require.NotNil(t, m)
	require.Equal(t, 8000, m.Bonus)
}

func TestMilestonesAscending(t *testing.T) {
	for i := 1; i < len(referralMilestones); i++ {
		require.Greater(t, referralMilestones[i].Threshold, referralMilestones[i-1].Threshold)
		require.Greater(t, referralMilestones[i].Bonus, referralMilestones[i-1].Bonus)
	}
}

func TestNextMilestone(t *testing.T) {
	next := nextMilestone(0)
	require.NotNil(t, next)
	require.Equal(t, 5, next.Threshold)

	next = nextMilestone(5)
	require.NotNil(t, next)
	require.Equal(t, 10, next.Threshold)

	next = nextMilestone(42)
	require.NotNil(t, next)
	require.Equal(t, 50, next.Threshold)

	require.Nil(t, nextMilestone(100))
	require.Nil(t, nextMilestone(500))
}
