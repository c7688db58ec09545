package constants

// 120 bpm, what a file without tempo events plays at
const DefaultMicrosPerQuarter = 500000

const DefaultTicksPerQuarter = 480

const MaxPitch = 127

const OctaveSemitones = 12

const DefaultMetadataTable = "mididf-metadata"

const DefaultServeAddr = ":8080"
