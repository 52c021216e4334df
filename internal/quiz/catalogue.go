package quiz

// Level is a school level with its grades and subject categories.
type Level struct {
	Name       string
	Grades     []string
	Categories []Category
}

// Category groups related subjects.
type Category struct {
	Name     string
	Subjects []string
}

var schoolSubjects = []Category{
	{Name: "Natural sciences", Subjects: []string{"Mathematics", "Physics", "Chemistry", "Biology"}},
	{Name: "Social sciences", Subjects: []string{"Literature", "History", "Geography"}},
	{Name: "Languages", Subjects: []string{"English"}},
}

// Catalogue lists every level in lobby order.
var Catalogue = []Level{
	{
		Name:       "Lower secondary",
		Grades:     []string{"6", "7", "8", "9"},
		Categories: schoolSubjects,
	},
	{
		Name:       "Upper secondary",
		Grades:     []string{"10", "11", "12"},
		Categories: schoolSubjects,
	},
	{
		Name:   "University",
		Grades: []string{"University"},
		Categories: []Category{
			{Name: "Natural sciences", Subjects: []string{"Advanced mathematics", "General physics", "General chemistry"}},
			{Name: "Social sciences", Subjects: []string{"Philosophy", "Sociology", "Psychology"}},
			{Name: "Law", Subjects: []string{"Civil law", "Criminal law", "Economic law"}},
			{Name: "Media", Subjects: []string{"Journalism", "Marketing", "PR"}},
			{Name: "Economics", Subjects: []string{"Macroeconomics", "Microeconomics", "Finance", "Accounting"}},
		},
	},
}

// Subjects returns every subject of a level, in category order.
func (l Level) Subjects() []string {
	var out []string
	for _, c := range l.Categories {
		out = append(out, c.Subjects...)
	}
	return out
}

// HasGrade reports whether grade belongs to the level.
func (l Level) HasGrade(grade string) bool {
	for _, g := range l.Grades {
		if g == grade {
			return true
		}
	}
	return false
}

// LevelForGrade returns the level a grade belongs to.
func LevelForGrade(grade string) (Level, bool) {
	for _, l := range Catalogue {
		if l.HasGrade(grade) {
			return l, true
		}
	}
	return Level{}, false
}

// Offered reports whether subject is taught at grade.
func Offered(subject, grade string) bool {
	l, ok := LevelForGrade(grade)
	if !ok {
		return false
	}
	for _, s := range l.Subjects() {
		if s == subject {
			return true
		}
	}
	return false
}
