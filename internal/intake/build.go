package intake

import "campotech-ai-engine/internal/graph"

// Build assembles the intake graph: transcribe -> translate ->
// extract, then the route conditional edge into auto_create / confirm /
// human_review / handle_failure. auto_create and confirm each carry their
// own conditional edge so a mid-node failure can redirect to human_review
// without the executor treating it as an ordinary error.
func (p *Pipeline) Build() (*graph.Graph[VoiceIntakeState], error) {
	byStatus := func(state VoiceIntakeState) string {
		return string(state.Status)
	}

	return graph.NewBuilder[VoiceIntakeState]().
		Entry("transcribe").
		AddNode("transcribe", p.Transcribe).
		AddConditionalEdge("transcribe", byStatus, map[string]string{
			string(StatusTranslating): "translate",
			string(StatusFailed):      "handle_failure",
		}).
		AddNode("translate", p.Translate).
		AddStaticEdge("translate", "extract").
		AddNode("extract", p.Extract).
		AddConditionalEdge("extract", p.Route, map[string]string{
			"auto_create":    "auto_create",
			"confirm":        "confirm",
			"human_review":   "human_review",
			"handle_failure": "handle_failure",
		}).
		AddNode("auto_create", p.AutoCreate).
		AddConditionalEdge("auto_create", byStatus, map[string]string{
			string(StatusCompleted):   "completed",
			string(StatusHumanReview): "human_review",
		}).
		AddNode("confirm", p.Confirm).
		AddConditionalEdge("confirm", byStatus, map[string]string{
			string(StatusConfirming):  "confirming_end",
			string(StatusHumanReview): "human_review",
		}).
		AddNode("human_review", p.HumanReview).
		AddStaticEdge("human_review", "human_review_end").
		AddNode("handle_failure", p.HandleFailure).
		AddStaticEdge("handle_failure", "failed_end").
		AddSink("completed").
		AddSink("confirming_end").
		AddSink("human_review_end").
		AddSink("failed_end").
		Build()
}
