package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophcal/internal/common"
	"github.com/dmitrijs2005/gophcal/internal/models"
	"github.com/dmitrijs2005/gophcal/internal/timex"
)

// clearValue empties an optional field during edit.
const clearValue = "-"

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, fmt.Sprintf(format, args...))
}

// scheduleID takes the id from args or asks for it.
func (a *App) scheduleID(args []string, verb string) (int64, error) {
	var raw string
	if len(args) > 0 {
		raw = args[0]
	} else {
		s, err := a.prompt(fmt.Sprintf("Enter schedule id to %s", verb))
		if err != nil {
			return 0, err
		}
		raw = s
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(raw, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("%q is not a schedule id", raw)
	}
	return id, nil
}

func (a *App) readTime(prompt, current string) (time.Time, error) {
	var (
		s   string
		err error
	)
	if current == "" {
		s, err = a.prompt(prompt + " (HH:mm dd/MM/yyyy)")
	} else {
		s, err = GetTextWithDefault(a.reader, prompt+" (HH:mm dd/MM/yyyy)", current, a.out)
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := timex.ParseDisplay(s)
	if err != nil {
		return time.Time{}, invalid("%s", err)
	}
	return t, nil
}

func (a *App) readCategory(current models.Category) (models.Category, error) {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}

	s, err := GetTextWithDefault(a.reader, "Category ("+strings.Join(names, ", ")+")", string(current), a.out)
	if err != nil {
		return "", err
	}
	c, ok := models.ParseCategory(s)
	if !ok || !c.IsFilter() {
		return "", invalid("unknown category %q", s)
	}
	return c, nil
}

func (a *App) readReminder(s *models.Schedule) error {
	on, err := GetYesNo(a.reader, "Remind me before start?", s.IsReminder, a.out)
	if err != nil {
		return err
	}
	s.IsReminder = on
	if !on {
		return nil
	}

	def := s.ReminderMinutes
	if def == 0 {
		def = models.DefaultReminderMinutes
	}
	m, err := GetInt(a.reader, "Minutes before start", def, a.out)
	if err != nil {
		return invalid("%s", err)
	}
	s.ReminderMinutes = m
	return nil
}

// optional reads a free text field. On edit an empty answer keeps the
// current value and "-" clears it.
func (a *App) optional(prompt, current string) (string, error) {
	if current == "" {
		return a.prompt(prompt + " (optional)")
	}
	s, err := GetTextWithDefault(a.reader, prompt+" ('-' to clear)", current, a.out)
	if err != nil {
		return "", err
	}
	if s == clearValue {
		return "", nil
	}
	return s, nil
}

// fillSchedule prompts for every field of s, using its values as defaults.
func (a *App) fillSchedule(s *models.Schedule) error {
	var err error

	if s.Title == "" {
		s.Title, err = a.prompt("Title")
	} else {
		s.Title, err = GetTextWithDefault(a.reader, "Title", s.Title, a.out)
	}
	if err != nil {
		return err
	}

	if s.Description, err = a.optional("Description", s.Description); err != nil {
		return err
	}
	if s.Note, err = a.optional("Note", s.Note); err != nil {
		return err
	}

	start, end := "", ""
	if !s.StartTime.IsZero() {
		start, end = timex.FormatDisplay(s.StartTime), timex.FormatDisplay(s.EndTime)
	}
	if s.StartTime, err = a.readTime("Start", start); err != nil {
		return err
	}
	if s.EndTime, err = a.readTime("End", end); err != nil {
		return err
	}

	cat := s.Category
	if cat == "" {
		cat = models.DefaultCategory
	}
	if s.Category, err = a.readCategory(cat); err != nil {
		return err
	}

	return a.readReminder(s)
}

func (a *App) Add(ctx context.Context) error {
	s := &models.Schedule{}
	if err := a.fillSchedule(s); err != nil {
		return err
	}

	id, err := a.schedules.Add(ctx, a.session, s)
	if err != nil {
		return err
	}
	a.printf("Schedule #%d added\n", id)
	return nil
}

func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.scheduleID(args, "edit")
	if err != nil {
		return err
	}

	s, err := a.schedules.Get(ctx, a.session, id)
	if err != nil {
		return err
	}
	if err := a.fillSchedule(s); err != nil {
		return err
	}

	if err := a.schedules.Update(ctx, a.session, s); err != nil {
		return err
	}
	a.printf("Schedule #%d updated\n", id)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.scheduleID(args, "delete")
	if err != nil {
		return err
	}
	if err := a.schedules.Delete(ctx, a.session, id); err != nil {
		return err
	}
	a.printf("Schedule #%d deleted\n", id)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.scheduleID(args, "show")
	if err != nil {
		return err
	}
	s, err := a.schedules.Get(ctx, a.session, id)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n", s.ID, s.Title)
	fmt.Fprintf(&b, "  Category: %s\n", s.Category)
	fmt.Fprintf(&b, "  Start:    %s\n", timex.FormatDisplay(s.StartTime))
	fmt.Fprintf(&b, "  End:      %s\n", timex.FormatDisplay(s.EndTime))
	if s.IsReminder {
		fmt.Fprintf(&b, "  Reminder: %d min before (%s)\n", s.ReminderMinutes, timex.FormatDisplay(s.ReminderAt()))
	} else {
		b.WriteString("  Reminder: off\n")
	}
	if s.Description != "" {
		fmt.Fprintf(&b, "  Description: %s\n", s.Description)
	}
	if s.Note != "" {
		fmt.Fprintf(&b, "  Note: %s\n", s.Note)
	}
	a.printf("%s", b.String())
	return nil
}

func (a *App) printList(list []models.Schedule) {
	if len(list) == 0 {
		a.println("No schedules")
		return
	}
	var b strings.Builder
	for _, s := range list {
		b.WriteString(s.Overview(timex.DisplayLayout))
		b.WriteString("\n")
	}
	a.printf("%s", b.String())
}

func (a *App) List(ctx context.Context) error {
	list, err := a.schedules.ListAll(ctx, a.session)
	if err != nil {
		return err
	}
	a.printList(list)
	return nil
}

func (a *App) Today(ctx context.Context) error {
	list, err := a.schedules.ListByDate(ctx, a.session, a.now())
	if err != nil {
		return err
	}
	a.printList(list)
	return nil
}

// Filter accepts date=yyyy-mm-dd, category=<name|All> and keyword=<text>.
// Text after keyword= runs to the end of the line.
func (a *App) Filter(ctx context.Context, args []string) error {
	f, err := parseFilter(args)
	if err != nil {
		return err
	}
	list, err := a.schedules.FilterSchedules(ctx, a.session, f)
	if err != nil {
		return err
	}
	a.printList(list)
	return nil
}

func parseFilter(args []string) (models.Filter, error) {
	var f models.Filter
	for i, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return f, invalid("expected key=value, got %q", arg)
		}
		switch strings.ToLower(key) {
		case "date":
			d, err := timex.ParseDate(value)
			if err != nil {
				return f, invalid("%s", err)
			}
			f.Date = d
		case "category":
			c, ok := models.ParseCategory(value)
			if !ok {
				return f, invalid("unknown category %q", value)
			}
			f.Category = c
		case "keyword":
			f.Keyword = strings.Join(append([]string{value}, args[i+1:]...), " ")
			return f, nil
		default:
			return f, invalid("unknown filter %q", key)
		}
	}
	return f, nil
}
