package live

const SystemInstruction = "Você é um assistente prestativo para pequenos empreendedores no Brasil. Responda de forma amigável, clara e concisa."

// Config describes the realtime session to open.
type Config struct {
	Model             string
	Voice             string
	SystemInstruction string
	InputSampleRate   int
	OutputSampleRate  int
	BlockSize         int
}

func DefaultConfig() Config {
	return Config{
		Model:             "gemini-2.5-flash-native-audio-preview-09-2025",
		Voice:             "Zephyr",
		SystemInstruction: SystemInstruction,
		InputSampleRate:   16000,
		OutputSampleRate:  24000,
		BlockSize:         4096,
	}
}
