package engine

// Maps is the ordered map pool.
var Maps = []string{
	"abyss", "ascent", "bind", "breeze", "corrode", "fracture",
	"haven", "icebox", "lotus", "pearl", "split", "sunset",
}

// Agents is the ordered agent pool.
var Agents = []string{
	"astra", "breach", "brimstone", "chamber", "clove", "cypher",
	"deadlock", "fade", "gekko", "harbor", "iso", "jett", "kayo",
	"killjoy", "neon", "omen", "phoenix", "raze", "reyna", "sage",
	"skye", "sova", "tejo", "viper", "vyse", "waylay", "yoru",
}

const (
	FirstAction   = 1
	LastAction    = 17
	DeciderAction = 9
)

// PhaseBounds holds the first and last action number of each active phase.
var PhaseBounds = map[Phase][2]int{
	PhaseMap:   {1, 9},
	PhaseAgent: {10, 17},
}

// ActionOrder is indexed by actionNumber-1.
var ActionOrder = []ActionType{
	// Map bans
	ActionMapBan,
	ActionMapBan,
	ActionMapBan,
	ActionMapBan,
	ActionMapBan,
	ActionMapBan,
	// Map picks
	ActionMapPick,
	ActionMapPick,
	// Decider
	ActionDecider,
	// Agent bans
	ActionAgentBan,
	ActionAgentBan,
	ActionAgentBan,
	ActionAgentBan,
	ActionAgentBan,
	ActionAgentBan,
	// Agent picks
	ActionAgentPick,
	ActionAgentPick,
}
