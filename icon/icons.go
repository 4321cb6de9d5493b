package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Fail Icon = iota
	Success
	Progress
	Mark
	Search
	Link
	Play
	Pause
	Mute
	Volume
	Fullscreen
	Quality
	Upload
	Pending
)

var icons = map[Icon]*iconDef{
	Fail: {
		emoji:   "💀",
		nerd:    "",
		plain:   "X",
		kaomoji: "(×﹏×)",
		squares: "🟥",
	},
	Success: {
		emoji:   "🎉",
		nerd:    "",
		plain:   "+",
		kaomoji: "(ᵔ◡ᵔ)",
		squares: "🟩",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "",
		plain:   "~",
		kaomoji: "(・_・;)",
		squares: "🟦",
	},
	Mark: {
		emoji:   "✅",
		nerd:    "",
		plain:   "*",
		kaomoji: "(x)",
		squares: "🟨",
	},
	Search: {
		emoji:   "🔎",
		nerd:    "",
		plain:   "?",
		kaomoji: "(⊙_☉)",
		squares: "🟪",
	},
	Link: {
		emoji:   "🔗",
		nerd:    "",
		plain:   "&",
		kaomoji: "(¬‿¬)",
		squares: "🟫",
	},
	Play: {
		emoji:   "▶️",
		nerd:    "",
		plain:   ">",
		kaomoji: "(▷)",
		squares: "▶",
	},
	Pause: {
		emoji:   "⏸️",
		nerd:    "",
		plain:   "||",
		kaomoji: "(‖)",
		squares: "⏸",
	},
	Mute: {
		emoji:   "🔇",
		nerd:    "",
		plain:   "m",
		kaomoji: "(´-ω-`)",
		squares: "⬛",
	},
	Volume: {
		emoji:   "🔊",
		nerd:    "",
		plain:   "v",
		kaomoji: "(°o°)",
		squares: "⬜",
	},
	Fullscreen: {
		emoji:   "⛶",
		nerd:    "",
		plain:   "[]",
		kaomoji: "[ ]",
		squares: "🔲",
	},
	Quality: {
		emoji:   "⚙️",
		nerd:    "",
		plain:   "#",
		kaomoji: "(⌐■_■)",
		squares: "🔳",
	},
	Upload: {
		emoji:   "📤",
		nerd:    "",
		plain:   "^",
		kaomoji: "(ﾉ◕ヮ◕)ﾉ",
		squares: "🟧",
	},
	Pending: {
		emoji:   "🕒",
		nerd:    "",
		plain:   ".",
		kaomoji: "(-_-)",
		squares: "⬜",
	},
}
