package domain

import "fmt"

// PickMethod names the rule used to choose a winner among candidates.
type PickMethod string

const (
	PickRandom          PickMethod = "random"
	PickHighestRated    PickMethod = "highest_rated"
	PickMostPopular     PickMethod = "most_popular"
	PickShortestRuntime PickMethod = "shortest_runtime"
)

// PickMethods lists every supported method.
var PickMethods = []PickMethod{PickRandom, PickHighestRated, PickMostPopular, PickShortestRuntime}

// ParsePickMethod validates a raw method name.
func ParsePickMethod(raw string) (PickMethod, error) {
	for _, m := range PickMethods {
		if string(m) == raw {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown pick method %q", raw)
}

func (m PickMethod) String() string {
	return string(m)
}
