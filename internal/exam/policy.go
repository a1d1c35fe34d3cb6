package exam

import (
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/config"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/session"
)

// Policy is the rule set one exam mode runs under. Thresholds are read at
// session-event time, so all sessions of a mode share one policy value.
type Policy struct {
	// PromoteAfter consecutive correct answers raise difficulty by one.
	PromoteAfter int
	// DemoteAfter consecutive wrong answers lower difficulty by one.
	DemoteAfter int
	// PointsPerDifficultyLevel scales the score delta of one answer.
	PointsPerDifficultyLevel int
	// MaxFailAnswers terminates the session once total wrong answers reach
	// it. Zero disables the limit.
	MaxFailAnswers int

	// ScoringEnabled controls whether answers move base points.
	ScoringEnabled bool
	// ViolationsEnforced controls whether integrity ceilings and heartbeat
	// misses can terminate the session. Counters are kept either way.
	ViolationsEnforced bool
	// RequiresIdentity demands an authenticated user at session start.
	RequiresIdentity bool
}

// DefaultPolicies builds the per-mode policy table from configuration.
// Practice keeps counters for observability but never scores, never
// terminates and admits anonymous candidates.
func DefaultPolicies(cfg *config.Config) map[session.Mode]Policy {
	return map[session.Mode]Policy{
		session.ModePractice: {
			PromoteAfter:             cfg.PracticePromoteAfter,
			DemoteAfter:              cfg.PracticeDemoteAfter,
			PointsPerDifficultyLevel: cfg.PointsPerDifficultyLevel,
			MaxFailAnswers:           0,
			ScoringEnabled:           false,
			ViolationsEnforced:       false,
			RequiresIdentity:         false,
		},
		session.ModeCompetitive: {
			PromoteAfter:             cfg.CompetitivePromoteAfter,
			DemoteAfter:              cfg.CompetitiveDemoteAfter,
			PointsPerDifficultyLevel: cfg.PointsPerDifficultyLevel,
			MaxFailAnswers:           cfg.MaxFailAnswersAbsolute,
			ScoringEnabled:           true,
			ViolationsEnforced:       true,
			RequiresIdentity:         true,
		},
	}
}
