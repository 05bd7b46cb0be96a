package state

import (
	"math"
	"slices"

	"github.com/zeusync/director/internal/core/systems/physics"
)

// TimestampEpsilon is how close two snapshot timestamps must be for the
// snapshots to count as the same capture.
const TimestampEpsilon = 0.01

// Snapshot is a captured game state. Timestamp is in seconds.
type Snapshot struct {
	ID             string         `json:"id" yaml:"id"`
	PlayerHealth   int            `json:"player_health" yaml:"player_health"`
	PlayerPoints   int            `json:"player_points" yaml:"player_points"`
	CurrentWave    int            `json:"current_wave" yaml:"current_wave"`
	WaveKills      int            `json:"wave_kills" yaml:"wave_kills"`
	CurrentAmmo    int            `json:"current_ammo" yaml:"current_ammo"`
	HolsteredAmmo  int            `json:"holstered_ammo" yaml:"holstered_ammo"`
	EnemyPositions []physics.Vec3 `json:"enemy_positions" yaml:"enemy_positions,omitempty"`
	EnemyHealth    []int          `json:"enemy_health" yaml:"enemy_health,omitempty"`
	Timestamp      float64        `json:"timestamp" yaml:"timestamp"`
}

// Equal compares snapshots by timestamp only.
func (s Snapshot) Equal(o Snapshot) bool {
	return math.Abs(s.Timestamp-o.Timestamp) <= TimestampEpsilon
}

// CaptureInput is the caller-provided part of a Snapshot.
type CaptureInput struct {
	PlayerHealth   int
	PlayerPoints   int
	CurrentWave    int
	WaveKills      int
	CurrentAmmo    int
	HolsteredAmmo  int
	EnemyPositions []physics.Vec3
	EnemyHealth    []int
}

func (in CaptureInput) snapshot(id string, ts float64) Snapshot {
	return Snapshot{
		ID:             id,
		PlayerHealth:   in.PlayerHealth,
		PlayerPoints:   in.PlayerPoints,
		CurrentWave:    in.CurrentWave,
		WaveKills:      in.WaveKills,
		CurrentAmmo:    in.CurrentAmmo,
		HolsteredAmmo:  in.HolsteredAmmo,
		EnemyPositions: slices.Clone(in.EnemyPositions),
		EnemyHealth:    slices.Clone(in.EnemyHealth),
		Timestamp:      ts,
	}
}
