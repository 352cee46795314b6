package domain

// RaisedHand is one entry in a room's raised-hand set, at most one per
// member.
type RaisedHand struct {
	SessionID SessionID `json:"id"`
	Name      string    `json:"name"`
	RaisedAt  int64     `json:"raisedAt"`
}
