package services

import "c2c-api/models"

// ExpandResourcePlan flattens an estimation's role lines into one slot
// per physical headcount: a line with num_of_resources = n contributes
// n consecutive slots, all pointing at the same line. Slot i of an
// allocation request is held to slot i of this expansion.
func ExpandResourcePlan(plan models.ResourcePlan) []*models.EstimationWindow {
	var slots []*models.EstimationWindow
	for i := range plan {
		for n := 0; n < plan[i].NumOfResources; n++ {
			slots = append(slots, &plan[i])
		}
	}
	return slots
}
