package chrome

import "strconv"

// SelectTarget picks one target out of a discovery list per the --tab
// contract: an empty tab picks the first "page"-type target; a numeric tab
// is a zero-based index into the list; anything else is matched against
// target id. Pure function, no I/O, so it is trivially property-testable.
func SelectTarget(targets []TargetInfo, tab string) (TargetInfo, error) {
	if tab == "" {
		for _, t := range targets {
			if t.Type == "page" {
				return t, nil
			}
		}
		return TargetInfo{}, errNoPageTargets()
	}

	if index, err := strconv.Atoi(tab); err == nil {
		if index < 0 || index >= len(targets) {
			return TargetInfo{}, errTargetNotFound(tab)
		}
		return targets[index], nil
	}

	for _, t := range targets {
		if t.ID == tab {
			return t, nil
		}
	}
	return TargetInfo{}, errTargetNotFound(tab)
}
