package session

// CardView is the client-facing representation of a card.
// Selected is true while the card is highlighted, which includes the incorrect reveal.
type CardView struct {
	ID        string `json:"id"`
	Number    int    `json:"number"`
	Text      string `json:"text"`
	Side      string `json:"side"`
	Status    string `json:"status"`
	Selected  bool   `json:"selected"`
	Pronounce bool   `json:"pronounce,omitempty"`
}

// StateMsg is the full session view pushed to the client after every transition.
// SetSize is the number of pairs on the current page, the denominator of Score.
type StateMsg struct {
	Type          string     `json:"type"`
	Phase         string     `json:"phase"`
	Deck          string     `json:"deck,omitempty"`
	SetIndex      int        `json:"setIndex"`
	TotalSets     int        `json:"totalSets"`
	TotalPairs    int        `json:"totalPairs"`
	SetSize       int        `json:"setSize"`
	Score         int        `json:"score"`
	Attempts      int        `json:"attempts"`
	TotalAttempts int        `json:"totalAttempts"`
	TotalMatched  int        `json:"totalMatched"`
	Left          []CardView `json:"left"`
	Right         []CardView `json:"right"`
	Feedback      string     `json:"feedback"`
	FeedbackKind  string     `json:"feedbackKind"`
	Error         string     `json:"error,omitempty"`
	ErrorKind     string     `json:"errorKind,omitempty"`
}

// PronounceMsg asks the client to speak text in lang.
type PronounceMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// BuildCardViews constructs the client-facing card list for one column.
func BuildCardViews(cards []DisplayCard, pronounceSide Side) []CardView {
	views := make([]CardView, len(cards))
	for i, c := range cards {
		views[i] = CardView{
			ID:        c.ID,
			Number:    c.Number,
			Text:      c.Text,
			Side:      c.Side.String(),
			Status:    c.Status.String(),
			Selected:  c.Status == Selected || c.Status == RevealedIncorrect,
			Pronounce: pronounceSide != NoSide && c.Side == pronounceSide,
		}
	}
	return views
}

// BuildStateMsg converts a View into the message sent to the client.
func BuildStateMsg(v View, pronounceSide Side) StateMsg {
	return StateMsg{
		Type:          "session_state",
		Phase:         v.Phase.String(),
		Deck:          v.DeckName,
		SetIndex:      v.SetIndex,
		TotalSets:     v.TotalSets,
		TotalPairs:    v.TotalPairs,
		SetSize:       len(v.Left),
		Score:         v.Score,
		Attempts:      v.Attempts,
		TotalAttempts: v.TotalAttempts,
		TotalMatched:  v.TotalMatched,
		Left:          BuildCardViews(v.Left, pronounceSide),
		Right:         BuildCardViews(v.Right, pronounceSide),
		Feedback:      v.Feedback.Message,
		FeedbackKind:  v.Feedback.Kind.String(),
		Error:         v.Reason,
		ErrorKind:     v.ErrorKind.String(),
	}
}
