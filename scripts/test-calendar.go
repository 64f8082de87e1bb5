package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/eventscrape/internal/calendar"
	"github.com/pfrederiksen/eventscrape/internal/event"
)

func main() {
	// Create a sample record
	start := event.At(time.Date(2026, time.March, 15, 19, 0, 0, 0, time.UTC))
	end := event.At(time.Date(2026, time.March, 15, 21, 30, 0, 0, time.UTC))
	r := event.NewRecord("Spring Concert at Riverside Park", start, "Mar 15, 7-9:30pm",
		"https://riverside.example.org/events", event.High)
	r.End = &end
	r.LocationName = "Riverside Park"
	r.Address = "1 River Rd, Springfield"

	icsContent := calendar.GenerateICS(r, time.Now())

	// Write to file (owner read/write only)
	filename := "test-event.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
