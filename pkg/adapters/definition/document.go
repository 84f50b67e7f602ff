package definition

// Document is the on-disk form of a survey.
// It uses "mapstructure" tags to match the YAML/JSON keys when decoding.
type Document struct {
	ID         string `mapstructure:"id" json:"id" yaml:"id"`
	Title      string `mapstructure:"title" json:"title,omitempty" yaml:"title,omitempty"`
	Intro      string `mapstructure:"intro" json:"intro,omitempty" yaml:"intro,omitempty"`
	EndMessage string `mapstructure:"end_message" json:"end_message,omitempty" yaml:"end_message,omitempty"`

	// AllowSkip makes every question optional unless it says otherwise.
	AllowSkip bool `mapstructure:"allow_skip" json:"allow_skip,omitempty" yaml:"allow_skip,omitempty"`

	// OffTopicMessage is accepted for compatibility with conversational front ends. Unused here.
	OffTopicMessage string `mapstructure:"off_topic_message" json:"off_topic_message,omitempty" yaml:"off_topic_message,omitempty"`

	Questions []QuestionDocument `mapstructure:"questions" json:"questions,omitempty" yaml:"questions,omitempty"`
}

// QuestionDocument is the on-disk form of a question.
type QuestionDocument struct {
	ID       string   `mapstructure:"id" json:"id" yaml:"id"`
	Type     string   `mapstructure:"type" json:"type,omitempty" yaml:"type,omitempty"`
	Text     string   `mapstructure:"text" json:"text,omitempty" yaml:"text,omitempty"`
	Options  []string `mapstructure:"options" json:"options,omitempty" yaml:"options,omitempty"`
	Optional *bool    `mapstructure:"optional" json:"optional,omitempty" yaml:"optional,omitempty"`

	// SaveAs names the variable conditions refer to. Defaults to the question ID.
	SaveAs string `mapstructure:"save_as" json:"save_as,omitempty" yaml:"save_as,omitempty"`

	// Condition shows this question only when an earlier answer matches.
	Condition *ConditionDocument `mapstructure:"condition" json:"condition,omitempty" yaml:"condition,omitempty"`

	Rules []RuleDocument `mapstructure:"rules" json:"rules,omitempty" yaml:"rules,omitempty"`
}

// ConditionDocument is the "show only if" form: {var: q1, equals: "Yes"}.
type ConditionDocument struct {
	Var    string   `mapstructure:"var" json:"var,omitempty" yaml:"var,omitempty"`
	Equals []string `mapstructure:"equals" json:"equals,omitempty" yaml:"equals,omitempty"`
}

// RuleDocument is the explicit skip form attached to the source question.
//
//	rules:
//	  - when: equals
//	    values: ["No"]
//	    skip: [Q2]
type RuleDocument struct {
	When   string   `mapstructure:"when" json:"when,omitempty" yaml:"when,omitempty"`
	Values []string `mapstructure:"values" json:"values,omitempty" yaml:"values,omitempty"`
	Skip   []string `mapstructure:"skip" json:"skip,omitempty" yaml:"skip,omitempty"`
}
