package model

import "time"

// Performance is a scheduled showing of a Play in a TheatreHall.  Play
// and Hall are populated by queries that join the referenced rows; plain
// lookups only fill the IDs.
type Performance struct {
    ID            uint64      // performances.id
    PlayID        uint64      // performances.play_id
    TheatreHallID uint64      // performances.theatre_hall_id
    ShowTime      time.Time   // performances.show_time (UTC)
    Play          *Play       // joined play, may be nil
    Hall          *TheatreHall // joined hall, may be nil
}

// PerformanceSummary is the list projection of a performance.  Available
// is derived from the hall capacity and the tickets issued at query time.
type PerformanceSummary struct {
    ID           uint64    `json:"id"`
    PlayTitle    string    `json:"play_title"`
    HallName     string    `json:"theatre_hall_name"`
    HallCapacity int       `json:"theatre_hall_capacity"`
    Available    int       `json:"available_tickets"`
    ShowTime     time.Time `json:"show_time"`
}

// SeatPosition identifies one seat of a hall grid.
type SeatPosition struct {
    Row  int `json:"row"`
    Seat int `json:"seat"`
}
