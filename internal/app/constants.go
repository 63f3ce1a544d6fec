package app

import "klondike/internal/domain"

// InitialGeneration is the clock a new game is dealt under when no config
// says otherwise.
const InitialGeneration domain.Generation = 0
