package model

// Genre is a row of the `genres` table.
type Genre struct {
    ID   uint64 `json:"id"`   // genres.id
    Name string `json:"name"` // genres.name
}

// Actor is a row of the `actors` table.
type Actor struct {
    ID        uint64 `json:"id"`         // actors.id
    FirstName string `json:"first_name"` // actors.first_name
    LastName  string `json:"last_name"`  // actors.last_name
}

// FullName joins first and last name with a single space.
func (a Actor) FullName() string {
    return a.FirstName + " " + a.LastName
}

// Play describes a stage production.  Genres and Actors are loaded from
// the play_genres and play_actors join tables and may be empty.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – title of the play.
//  Description – optional free text.
//  Genres      – genres the play belongs to.
//  Actors      – actors appearing in the play.
type Play struct {
    ID          uint64  // plays.id
    Title       string  // plays.title
    Description *string // plays.description (nullable)
    Genres      []Genre
    Actors      []Actor
}

// TheatreHall is an auditorium with a fixed rectangular seating grid of
// Rows rows and SeatsInRow seats per row.  Rows and seats are numbered
// from 1.
type TheatreHall struct {
    ID         uint64 // theatre_halls.id
    Name       string // theatre_halls.name
    Rows       int    // theatre_halls.total_rows
    SeatsInRow int    // theatre_halls.seats_in_row
}

// Capacity is the number of seats in the hall.
func (h TheatreHall) Capacity() int {
    return h.Rows * h.SeatsInRow
}
