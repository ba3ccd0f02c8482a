package services

import (
	"context"
	"strings"
)

// GenerateManimCodeLocal is the deterministic fallback code generator used
// when Gemini is disabled or fails. It keeps the pipeline usable offline.
func GenerateManimCodeLocal(ctx context.Context, query, previousCode string) string {
	_ = ctx
	q := strings.ToLower(query)
	if strings.Contains(q, "triangle") && strings.Contains(q, "square") {
		return `from manim import *

class GeneratedManimScene(Scene):
    def construct(self):
        triangle = Triangle().scale(2)
        self.play(Create(triangle))
        self.wait(1)

        square = Square().scale(2)
        self.play(Transform(triangle, square))
        self.wait(1)

        text = Text("Triangle to Square Transformation")
        text.to_edge(UP)
        self.play(Write(text))
        self.wait(1)
`
	}
	return `from manim import *

class GeneratedManimScene(Scene):
    def construct(self):
        circle = Circle().scale(2)
        circle.set_fill(BLUE, opacity=0.5)
        self.play(Create(circle))

        text = Text("Generated Animation")
        text.to_edge(UP)
        self.play(Write(text))

        self.play(circle.animate.shift(LEFT * 2))
        self.play(circle.animate.shift(RIGHT * 4))
        self.play(circle.animate.shift(LEFT * 2))

        self.play(FadeOut(circle), FadeOut(text))
`
}
