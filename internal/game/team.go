package game

// Team accumulates points across the rounds of one match. Exactly two teams
// of two players each; seats 0 and 2 form the first team, 1 and 3 the
// second.
type Team struct {
	Name   string
	Points int
}

// AddPoints adds a completed round's points to the running total.
func (t *Team) AddPoints(points int) {
	t.Points += points
}
