package adapter

import "fmt"

// quizSystemPrompt instructs the model to emit the generation schema that
// model.GeneratedQuizSet.Validate enforces. Keep the two in sync.
const quizSystemPrompt = `You are a quiz generator. Given source material, produce multiple-choice quizzes that test understanding of its key ideas.

Respond with a single JSON object, no prose, in this exact shape:
{
  "topic": "short topic of the material",
  "category": "one-or-two word category",
  "quizzes": [
    {
      "question": "the question text",
      "options": ["option A", "option B", "option C", "option D"],
      "answers": ["option B"],
      "explanation": "why the answer is correct"
    }
  ]
}

Rules:
- Each quiz has between 2 and 4 options.
- "answers" lists the correct options, copied verbatim from "options".
- At least one answer per quiz, multiple answers are allowed.
- Write questions that test understanding, not verbatim recall.
- Generate between 3 and 10 quizzes depending on how much the material covers.`

// QuizGenerationMessages builds the chat turn pair for one piece of source
// material. Shared by the synchronous path and the batch request lines so
// both produce identically-shaped output.
func QuizGenerationMessages(content string) []Message {
	return []Message{
		{Role: "system", Content: quizSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Generate quizzes from the following material:\n\n%s", content)},
	}
}
