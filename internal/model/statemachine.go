package model

// transitionTable maps a state to the set of states it may move to.
// States absent from the table (or mapped to an empty set) are terminal.
type transitionTable[S ~string] map[S][]S

func (t transitionTable[S]) isTerminal(from S) bool {
	return len(t[from]) == 0
}

func (t transitionTable[S]) allows(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// check validates from -> to and returns a *StateError wrapping illegal when
// the move is not in the table.
func (t transitionTable[S]) check(from, to S, illegal error) error {
	if t.isTerminal(from) || !t.allows(from, to) {
		return stateErr(illegal, from, to)
	}
	return nil
}
