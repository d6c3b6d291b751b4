// Package knowledge provides the builtin knowledge collaborator: short domain
// facts looked up by keyword. Entries live in a chromem-go collection embedded
// with a deterministic hashed bag-of-words, so lookups need no model or network.
package knowledge

// DefaultEntries returns the knowledge shipped with the binary.
func DefaultEntries() []Entry {
	return []Entry{
		{ID: "biz_revenue_levers", Domain: "business", Source: "builtin", Content: "Revenue grows through price, volume and mix; change one lever at a time to see its effect."},
		{ID: "biz_budget_marginal", Domain: "business", Source: "builtin", Content: "Allocate a fixed budget by marginal return: fund the next unit where it earns the most."},
		{ID: "biz_staff_capacity", Domain: "business", Source: "builtin", Content: "Staff availability caps throughput; schedule around the scarcest skill first."},
		{ID: "biz_customer_retention", Domain: "business", Source: "builtin", Content: "Retaining a customer is usually cheaper than acquiring one; measure churn before spending on marketing."},
		{ID: "tech_latency_cache", Domain: "technology", Source: "builtin", Content: "Caching hot data close to the reader cuts latency; invalidation is the hard part."},
		{ID: "tech_database_index", Domain: "technology", Source: "builtin", Content: "A database index trades write cost and storage for faster reads on the indexed columns."},
		{ID: "tech_server_scaling", Domain: "technology", Source: "builtin", Content: "Scale a stateless server horizontally; scale stateful systems by partitioning data."},
		{ID: "sci_hypothesis_control", Domain: "science", Source: "builtin", Content: "Every experiment needs a control group so the hypothesis is tested against a baseline."},
		{ID: "sci_measurement_error", Domain: "science", Source: "builtin", Content: "Report measurement uncertainty with every result; repeated trials reduce random error."},
		{ID: "edu_student_feedback", Domain: "education", Source: "builtin", Content: "Frequent low-stakes feedback improves student learning more than a single final exam."},
		{ID: "edu_curriculum_sequence", Domain: "education", Source: "builtin", Content: "Sequence a curriculum so each course builds on skills already practiced."},
		{ID: "health_patient_triage", Domain: "healthcare", Source: "builtin", Content: "Triage orders patient treatment by urgency, not arrival time."},
		{ID: "health_clinical_evidence", Domain: "healthcare", Source: "builtin", Content: "Clinical decisions should weigh trial evidence against the individual patient's condition."},
		{ID: "eng_bridge_load", Domain: "engineering", Source: "builtin", Content: "Design a bridge for the maximum expected load times a safety factor, usually 1.5 to 2."},
		{ID: "eng_material_stress", Domain: "engineering", Source: "builtin", Content: "Material stress must stay below the yield strength under every load case."},
		{ID: "gen_constraints_first", Domain: "general", Source: "builtin", Content: "List hard constraints before exploring options; they prune the search space early."},
		{ID: "gen_iterate_feedback", Domain: "general", Source: "builtin", Content: "Short feedback cycles expose wrong assumptions before they become expensive."},
	}
}
