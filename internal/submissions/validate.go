package submissions

import (
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/mesh-intelligence/storybench/pkg/types"
)

// Length limits of the submission form. Min limits only apply to non-empty
// values; all limits count characters of the trimmed value.
type submissionForm struct {
	Prompt     string `form:"prompt" validate:"max=5000"`
	Technology string `form:"technology" validate:"max=100"`
	Story      string `form:"story" validate:"max=50000"`

	ThemePrompt        string `form:"theme_prompt" validate:"omitempty,min=20,max=5000"`
	ThemePlaceholders  string `form:"theme_placeholders" validate:"omitempty,json"`
	ThemeStory         string `form:"theme_story" validate:"omitempty,min=50,max=50000"`
	ThemeOriginalStory string `form:"theme_original_story"`

	EducationPrompt        string `form:"education_prompt" validate:"omitempty,min=20,max=5000"`
	EducationPlaceholders  string `form:"education_placeholders" validate:"omitempty,json"`
	EducationStory         string `form:"education_story" validate:"omitempty,min=100,max=50000"`
	EducationOriginalStory string `form:"education_original_story"`

	QuestionsPrompt        string `form:"questions_prompt" validate:"omitempty,min=20,max=5000"`
	QuestionsPlaceholders  string `form:"questions_placeholders" validate:"omitempty,json"`
	Questions              string `form:"questions" validate:"omitempty,min=50,max=20000"`
	QuestionsOriginalStory string `form:"questions_original_story"`
}

// messages maps field and failed rule to the text shown to the user.
var messages = map[string]map[string]string{
	"prompt":     {"max": "LLM prompts cannot exceed 5000 characters. Please shorten your prompt."},
	"technology": {"max": "Technology name cannot exceed 100 characters."},
	"story":      {"max": "LLM responses cannot exceed 50000 characters. Please trim your response."},
	"theme_prompt": {
		"min": "Theme transformation prompts must be at least 20 characters long if provided.",
		"max": "Theme transformation prompts cannot exceed 5000 characters.",
	},
	"theme_placeholders": {"json": "Theme placeholders must be valid JSON."},
	"theme_story": {
		"min": "Theme transformation results must be at least 50 characters long if provided.",
		"max": "Theme transformation results cannot exceed 50000 characters.",
	},
	"education_prompt": {
		"min": "Educational enhancement prompts must be at least 20 characters long if provided.",
		"max": "Educational enhancement prompts cannot exceed 5000 characters.",
	},
	"education_placeholders": {"json": "Education placeholders must be valid JSON."},
	"education_story": {
		"min": "Modified stories must be at least 100 characters long if provided. Please include the complete modified text.",
		"max": "Modified stories cannot exceed 50000 characters.",
	},
	"questions_prompt": {
		"min": "Question generation prompts must be at least 20 characters long if provided.",
		"max": "Question generation prompts cannot exceed 5000 characters.",
	},
	"questions_placeholders": {"json": "Questions placeholders must be valid JSON."},
	"questions": {
		"min": "Generated questions must be at least 50 characters long if provided. Please include complete questions.",
		"max": "Generated questions cannot exceed 20000 characters.",
	},
}

const msgNoSection = "At least one complete section must be filled. Please complete all fields in at least one section."

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			return f.Tag.Get("form")
		})
		validate = v
	})
	return validate
}

// newForm copies the trimmed values of bag into a submissionForm.
func newForm(bag map[string]string) submissionForm {
	var form submissionForm
	v := reflect.ValueOf(&form).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("form")
		v.Field(i).SetString(strings.TrimSpace(bag[name]))
	}
	return form
}

// Validate checks the fields relevant to category c. Fields belonging to
// other categories are treated as empty, so the submission must complete
// the category's own section. It returns a *types.ValidationError listing
// every failed check.
func Validate(c types.Category, fields map[string]string) error {
	d, err := types.DescriptorFor(c)
	if err != nil {
		return &types.ValidationError{Messages: []string{"Invalid category: " + string(c)}}
	}
	bag := make(map[string]string, len(d.Validated))
	for _, f := range d.Validated {
		bag[f] = fields[f]
	}
	return validateBag(bag).Err()
}

// ValidateForm checks the complete field bag: every length rule, and that
// at least one section of any category is complete.
func ValidateForm(fields map[string]string) error {
	return validateBag(fields).Err()
}

func validateBag(bag map[string]string) *types.ValidationError {
	verr := &types.ValidationError{}
	form := newForm(bag)
	if err := formValidator().Struct(form); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				verr.Add(messageFor(fe.Field(), fe.Tag()))
			}
		} else {
			verr.Add(err.Error())
		}
	}
	if !anySectionComplete(bag) {
		verr.Add(msgNoSection)
	}
	return verr
}

func messageFor(field, tag string) string {
	if m, ok := messages[field][tag]; ok {
		return m
	}
	return field + " is invalid (" + tag + ")"
}

// anySectionComplete reports whether every field of at least one section
// meets its minimum trimmed length.
func anySectionComplete(bag map[string]string) bool {
	for _, c := range types.Categories {
		if sectionComplete(c.Descriptor().Section, bag) {
			return true
		}
	}
	return false
}

func sectionComplete(s types.Section, bag map[string]string) bool {
	for _, f := range s.Fields {
		if utf8.RuneCountInString(strings.TrimSpace(bag[f])) < s.Min[f] {
			return false
		}
	}
	return true
}
