package config

import (
    "errors"
    "fmt"
    "strings"

    "github.com/spf13/viper"
)

// Form is the static catalog the registration dialog offers.
type Form struct {
    Universities    []string     `mapstructure:"universities"`
    OtherUniversity string       `mapstructure:"other_university"`
    Courses         []string     `mapstructure:"courses"`
    ConsentText     string       `mapstructure:"consent_text"`
    Organization    Organization `mapstructure:"organization"`
}

type Organization struct {
    Event string `mapstructure:"event"`
    Venue string `mapstructure:"venue"`
    City  string `mapstructure:"city"`
}

// UniversityOptions is the keyboard list: configured universities followed by the sentinel.
func (f Form) UniversityOptions() []string {
    out := make([]string, 0, len(f.Universities)+1)
    for _, u := range f.Universities {
        if u != f.OtherUniversity {
            out = append(out, u)
        }
    }
    return append(out, f.OtherUniversity)
}

func DefaultForm() Form {
    return Form{
        Universities: []string{
            "СПбГУ",
            "ИТМО",
            "СПбПУ Петра Великого",
            "ЛЭТИ",
            "ВШЭ Санкт-Петербург",
            "ГУАП",
            "РГПУ им. Герцена",
        },
        OtherUniversity: "Другой университет",
        Courses: []string{
            "1 курс",
            "2 курс",
            "3 курс",
            "4 курс",
            "5 курс",
            "6 курс",
            "Магистратура",
            "Аспирантура",
            "Выпускник",
        },
        ConsentText: "СОГЛАСИЕ НА ОБРАБОТКУ ПЕРСОНАЛЬНЫХ ДАННЫХ\n\n" +
            "Я даю согласие организаторам форума на обработку моих персональных данных " +
            "(ФИО, дата рождения, адрес электронной почты, номер телефона, место и курс обучения) " +
            "в целях регистрации и участия в форуме. Согласие действует до его отзыва.",
        Organization: Organization{
            Event: "Future Wave",
            Venue: "Конгресс-центр",
            City:  "Санкт-Петербург",
        },
    }
}

// LoadForm reads a YAML catalog on top of DefaultForm. An empty path yields
// the defaults.
func LoadForm(path string) (Form, error) {
    d := DefaultForm()
    v := viper.New()
    v.SetDefault("universities", d.Universities)
    v.SetDefault("other_university", d.OtherUniversity)
    v.SetDefault("courses", d.Courses)
    v.SetDefault("consent_text", d.ConsentText)
    v.SetDefault("organization.event", d.Organization.Event)
    v.SetDefault("organization.venue", d.Organization.Venue)
    v.SetDefault("organization.city", d.Organization.City)

    if path != "" {
        v.SetConfigFile(path)
        if err := v.ReadInConfig(); err != nil {
            return Form{}, fmt.Errorf("read form %s: %w", path, err)
        }
    }

    var f Form
    if err := v.Unmarshal(&f); err != nil {
        return Form{}, fmt.Errorf("decode form: %w", err)
    }
    if err := f.Validate(); err != nil {
        return Form{}, err
    }
    return f, nil
}

func (f Form) Validate() error {
    if strings.TrimSpace(f.OtherUniversity) == "" {
        return errors.New("form: other_university is empty")
    }
    if len(f.Courses) == 0 {
        return errors.New("form: courses are empty")
    }
    if strings.TrimSpace(f.ConsentText) == "" {
        return errors.New("form: consent_text is empty")
    }
    return nil
}
