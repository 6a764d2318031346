package models

// HomeContent is the landing section.
type HomeContent struct {
	Title    string   `json:"title"`
	Intro    string   `json:"intro"`
	Features []string `json:"features"`
}
