package main

// OptimizeCommands merges adjacent commands of the same type by summing
// their values. Order is preserved and runs are never merged across a
// different command type. The input slice is left untouched.
func OptimizeCommands(commands CommandList) CommandList {
	if len(commands) == 0 {
		return CommandList{}
	}

	optimized := make(CommandList, 0, len(commands))
	current := commands[0]
	for _, next := range commands[1:] {
		if next.Type == current.Type {
			current.Value += next.Value
			continue
		}
		optimized = append(optimized, current)
		current = next
	}
	return append(optimized, current)
}
