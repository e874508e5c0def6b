package domain

// RealWorldTip explains what a concept looks like outside the lab
type RealWorldTip struct {
	Concept      string   `json:"concept"`
	Tip          string   `json:"tip"`
	CommonErrors []string `json:"commonErrors,omitempty"`
	Reality      string   `json:"reality"`
}

// TipCategory is a named group of AI collaboration tips
type TipCategory struct {
	Name string   `json:"name"`
	Tips []string `json:"tips"`
}

// Theme is a cosmetic preset for customization
type Theme struct {
	Name   string      `json:"name"`
	Colors ThemeColors `json:"colors"`
	Fonts  ThemeFonts  `json:"fonts"`
}

// ThemeColors holds the hex colors of a theme
type ThemeColors struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// ThemeFonts holds the font families of a theme
type ThemeFonts struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}
