package memstore

import "github.com/gokatarajesh/trivia-api/internal/question"

// Fixture returns a store holding the reference trivia data set: 6 categories and 19 questions.
// It mirrors db/migrations/00002_seed_trivia.sql.
func Fixture() *Store {
	return New(FixtureCategories(), FixtureQuestions())
}

func FixtureCategories() []question.Category {
	return []question.Category{
		{ID: 1, Type: "Science"},
		{ID: 2, Type: "Art"},
		{ID: 3, Type: "Geography"},
		{ID: 4, Type: "History"},
		{ID: 5, Type: "Entertainment"},
		{ID: 6, Type: "Sports"},
	}
}

func FixtureQuestions() []question.Question {
	return []question.Question{
		{ID: 5, Question: "Whose autobiography is entitled 'I Know Why the Caged Bird Sings'?", Answer: "Maya Angelou", Difficulty: 2, Category: 4},
		{ID: 9, Question: "What boxer's original name is Cassius Clay?", Answer: "Muhammad Ali", Difficulty: 1, Category: 4},
		{ID: 2, Question: "What movie earned Tom Hanks his third straight Oscar nomination, in 1996?", Answer: "Apollo 13", Difficulty: 4, Category: 5},
		{ID: 4, Question: "What actor did author Anne Rice first denounce, then praise in the role of her beloved Lestat?", Answer: "Tom Cruise", Difficulty: 4, Category: 5},
		{ID: 6, Question: "What was the title of the 1990 fantasy directed by Tim Burton about a young man with multi-bladed appendages?", Answer: "Edward Scissorhands", Difficulty: 3, Category: 5},
		{ID: 10, Question: "Which is the only team to play in every soccer World Cup tournament?", Answer: "Brazil", Difficulty: 3, Category: 6},
		{ID: 11, Question: "Which country won the first ever soccer World Cup in 1930?", Answer: "Uruguay", Difficulty: 4, Category: 6},
		{ID: 12, Question: "Who invented Peanut Butter?", Answer: "George Washington Carver", Difficulty: 2, Category: 4},
		{ID: 13, Question: "What is the largest lake in Africa?", Answer: "Lake Victoria", Difficulty: 2, Category: 3},
		{ID: 14, Question: "In which royal palace would you find the Hall of Mirrors?", Answer: "The Palace of Versailles", Difficulty: 3, Category: 3},
		{ID: 15, Question: "The Taj Mahal is located in which Indian city?", Answer: "Agra", Difficulty: 2, Category: 3},
		{ID: 16, Question: "Which Dutch graphic artist–initials M C was a creator of optical illusions?", Answer: "Escher", Difficulty: 1, Category: 2},
		{ID: 17, Question: "La Giaconda is better known as what?", Answer: "Mona Lisa", Difficulty: 3, Category: 2},
		{ID: 18, Question: "How many paintings did Van Gogh sell in his lifetime?", Answer: "One", Difficulty: 4, Category: 2},
		{ID: 19, Question: "Which American artist was a pioneer of Abstract Expressionism, and a leading exponent of action painting?", Answer: "Jackson Pollock", Difficulty: 2, Category: 2},
		{ID: 20, Question: "What is the heaviest organ in the human body?", Answer: "The Liver", Difficulty: 4, Category: 1},
		{ID: 21, Question: "Who discovered penicillin?", Answer: "Alexander Fleming", Difficulty: 3, Category: 1},
		{ID: 22, Question: "Hematology is a branch of medicine involving the study of what?", Answer: "Blood", Difficulty: 4, Category: 1},
		{ID: 23, Question: "Which dung beetle was worshipped by the ancient Egyptians?", Answer: "Scarab", Difficulty: 4, Category: 4},
	}
}
