package model

// RecommendationAction tells the operator what to do with a class.
type RecommendationAction string

const (
	// ActionAdd means the class is below its target count.
	ActionAdd RecommendationAction = "add"

	// ActionReduce means the class is above its target count.
	ActionReduce RecommendationAction = "reduce"

	// ActionOptimal means the class matches its target exactly.
	ActionOptimal RecommendationAction = "optimal"
)

// Recommendation compares the current count of a class with its target.
type Recommendation struct {
	Class   string               `json:"class"`
	Current int                  `json:"current"`
	Target  int                  `json:"target"`
	Needed  int                  `json:"needed"`
	Action  RecommendationAction `json:"action"`
}
