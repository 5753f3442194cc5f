package engine

import "github.com/piwi3910/camkernel/internal/model"

// GroupByTool reorders operations so every operation of a tool runs
// consecutively. Tools keep the order of their first appearance and
// operations keep their relative order within a tool. The input is not
// modified.
func GroupByTool(ops []model.Operation) []model.Operation {
	order := []string{}
	byTool := map[string][]model.Operation{}
	for _, op := range ops {
		if _, ok := byTool[op.ToolID]; !ok {
			order = append(order, op.ToolID)
		}
		byTool[op.ToolID] = append(byTool[op.ToolID], op)
	}

	result := make([]model.Operation, 0, len(ops))
	for _, id := range order {
		result = append(result, byTool[id]...)
	}
	return result
}

// ToolChanges counts the tool changes needed to run ops in order, counting
// the first load.
func ToolChanges(ops []model.Operation) int {
	changes := 0
	last := ""
	for i, op := range ops {
		if i == 0 || op.ToolID != last {
			changes++
		}
		last = op.ToolID
	}
	return changes
}
