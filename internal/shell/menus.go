package shell

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pavelanni/easymark/internal/i18n"
	"github.com/pavelanni/easymark/internal/model"
	"github.com/pavelanni/easymark/internal/render"
	"github.com/pavelanni/easymark/internal/store"
)

func (s *Shell) mainMenu(ctx context.Context) error {
	for {
		items := []string{
			i18n.T(ctx, "NewAssignment"),
			i18n.T(ctx, "LoadAssignment"),
			i18n.T(ctx, "ImportFile"),
			i18n.T(ctx, "Quit"),
		}
		choice, err := s.menu(ctx, i18n.T(ctx, "AppTitle"), items)
		if err != nil {
			return err
		}
		var opened bool
		switch choice {
		case 0:
			opened, err = s.newAssignment(ctx)
		case 1:
			opened, err = s.loadAssignment(ctx)
		case 2:
			opened, err = s.importFile(ctx)
		default:
			return errQuit
		}
		if err != nil {
			return err
		}
		if opened {
			if err := s.assignmentMenu(ctx); err != nil {
				return err
			}
		}
	}
}

// newAssignment asks for the name, course and question marks, then saves
// the new assignment.
func (s *Shell) newAssignment(ctx context.Context) (bool, error) {
	title, err := s.text(ctx, i18n.T(ctx, "AssignmentName"))
	if err != nil {
		return false, err
	}
	course, err := s.text(ctx, i18n.T(ctx, "CourseName"))
	if err != nil {
		return false, err
	}
	if _, err := s.repo.FindID(ctx, course, title); err == nil {
		s.notice(ctx, "AssignmentExists")
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	var numQuestions int
	for {
		numQuestions, err = s.whole(ctx, i18n.T(ctx, "NumQuestions"))
		if err != nil {
			return false, err
		}
		if numQuestions > 0 {
			break
		}
		s.notice(ctx, "AtLeastOneQuestion")
	}

	a := model.NewAssignment(title, course)
	for num := 1; num <= numQuestions; num++ {
		s.header(i18n.Td(ctx, "MarksHeader", map[string]any{"Num": num}))
		part := 1
		for {
			label := model.Question{Num: num, Part: part}.Label()
			marks, err := s.amount(ctx, i18n.Td(ctx, "MarksFor", map[string]any{"Label": label}), "MarksNegative", 0, false)
			if err != nil {
				return false, err
			}
			if marks == 0 {
				if part == 1 {
					s.notice(ctx, "AtLeastOnePart")
					continue
				}
				break
			}
			if err := a.AddQuestion(num, part, marks); err != nil {
				return false, err
			}
			part++
		}
	}
	s.clear()

	s.a, s.id = a, 0
	if err := s.save(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Shell) loadAssignment(ctx context.Context) (bool, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return false, fmt.Errorf("list assignments: %w", err)
	}
	if len(list) == 0 {
		s.notice(ctx, "NoAssignments")
		return false, nil
	}
	// The last opened assignment goes first.
	if last, ok, err := s.repo.LastAssignment(ctx); err != nil {
		return false, err
	} else if ok {
		for i, sum := range list {
			if sum.ID == last {
				list = append([]store.Summary{sum}, append(list[:i:i], list[i+1:]...)...)
				break
			}
		}
	}

	items := make([]string, 0, len(list)+1)
	for _, sum := range list {
		items = append(items, i18n.Tp(ctx, "AssignmentSummary", sum.Students,
			map[string]any{"Course": sum.Course, "Title": sum.Title}))
	}
	items = append(items, i18n.T(ctx, "Cancel"))
	choice, err := s.menu(ctx, i18n.T(ctx, "LoadAssignment"), items)
	if err != nil || choice == len(list) {
		return false, err
	}
	if err := s.load(ctx, list[choice].ID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Shell) importFile(ctx context.Context) (bool, error) {
	files, err := store.FindFiles(s.cfg.FileDir)
	if err != nil {
		return false, err
	}
	if len(files) == 0 {
		s.notice(ctx, "NoFiles")
		return false, nil
	}
	items := make([]string, 0, len(files)+1)
	for _, f := range files {
		items = append(items, filepath.Base(f))
	}
	items = append(items, i18n.T(ctx, "Cancel"))
	choice, err := s.menu(ctx, i18n.T(ctx, "ImportFile"), items)
	if err != nil || choice == len(files) {
		return false, err
	}
	a, err := store.ReadFile(files[choice])
	if err != nil {
		s.noticeText(i18n.Td(ctx, "OperationFailed", map[string]any{"Error": err.Error()}))
		return false, nil
	}
	s.a, s.id = a, 0
	if id, err := s.repo.FindID(ctx, a.Course, a.Title); err == nil {
		s.id = id
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	if err := s.save(ctx); err != nil {
		return false, err
	}
	s.printf("%s\n\n", i18n.Td(ctx, "Imported", map[string]any{"Course": a.Course, "Title": a.Title}))
	return true, nil
}

func (s *Shell) assignmentMenu(ctx context.Context) error {
	for {
		items := []string{
			i18n.T(ctx, "GradeStudent"),
			i18n.T(ctx, "AddStudent"),
			i18n.T(ctx, "ShowGradeSheets"),
			i18n.T(ctx, "ExportAllLatex"),
			i18n.T(ctx, "ExportAllHTML"),
			i18n.T(ctx, "SaveFile"),
			i18n.T(ctx, "Back"),
		}
		title := i18n.Td(ctx, "SheetTitle", map[string]any{"Course": s.a.Course, "Title": s.a.Title})
		choice, err := s.menu(ctx, title, items)
		if err != nil {
			return err
		}
		switch choice {
		case 0:
			err = s.chooseStudent(ctx)
		case 1:
			err = s.addStudent(ctx)
		case 2:
			s.showAllSheets(ctx)
		case 3:
			s.exportAll(ctx, render.FormatLaTeX)
		case 4:
			s.exportAll(ctx, render.FormatHTML)
		case 5:
			s.saveFile(ctx)
		default:
			s.a, s.id = nil, 0
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shell) addStudent(ctx context.Context) error {
	s.header(i18n.T(ctx, "NewStudent"))
	name, err := s.text(ctx, i18n.T(ctx, "StudentName"))
	if err != nil {
		return err
	}
	s.clear()
	if s.a.StudentExists(name) {
		s.notice(ctx, "StudentExists")
		return nil
	}
	return s.apply(ctx, "add student", func() error { return s.a.AddStudent(name) })
}

func (s *Shell) chooseStudent(ctx context.Context) error {
	students := s.a.Students()
	if len(students) == 0 {
		s.notice(ctx, "NoStudents")
		return nil
	}
	items := append(students, i18n.T(ctx, "Cancel"))
	choice, err := s.menu(ctx, i18n.T(ctx, "ChooseStudent"), items)
	if err != nil || choice == len(students) {
		return err
	}
	return s.studentMenu(ctx, students[choice])
}

func (s *Shell) showAllSheets(ctx context.Context) {
	for _, student := range s.a.Students() {
		sheet, err := s.a.SheetFor(student)
		if err != nil {
			continue
		}
		s.printf("%s\n", render.Text(ctx, sheet, s.cfg.Styles))
	}
}

func (s *Shell) exportAll(ctx context.Context, f render.Format) {
	dir, n, err := render.WriteAll(ctx, s.a, s.cfg.OutDir, f)
	if err != nil {
		s.noticeText(i18n.Td(ctx, "OperationFailed", map[string]any{"Error": err.Error()}))
		return
	}
	s.printf("%s\n\n", i18n.Tp(ctx, "WroteSheets", n, map[string]any{"Dir": dir}))
}

func (s *Shell) saveFile(ctx context.Context) {
	path := filepath.Join(s.cfg.OutDir, store.FileName(s.a))
	if err := store.WriteFile(path, s.a); err != nil {
		s.noticeText(i18n.Td(ctx, "OperationFailed", map[string]any{"Error": err.Error()}))
		return
	}
	s.printf("%s\n\n", i18n.Td(ctx, "Saved", map[string]any{"Path": path}))
}

func (s *Shell) studentMenu(ctx context.Context, student string) error {
	for {
		questions := s.a.Questions()
		items := make([]string, 0, len(questions)+3)
		for _, q := range questions {
			items = append(items, fmt.Sprintf("%s (%s/%s)",
				i18n.Td(ctx, "QuestionHeading", map[string]any{"Label": q.Label()}),
				render.Num(s.a.StudentsMarkFor(student, q)), render.Num(q.OutOf)))
		}
		items = append(items,
			i18n.T(ctx, "ShowGradeSheet"),
			i18n.T(ctx, "ExportLatex"),
			i18n.T(ctx, "Back"),
		)
		title := fmt.Sprintf("%s (%s/%s)", student,
			render.Num(s.a.StudentsTotal(student)), render.Num(s.a.OutOf()))
		choice, err := s.menu(ctx, title, items)
		if err != nil {
			return err
		}
		switch {
		case choice < len(questions):
			if err := s.questionMenu(ctx, student, questions[choice]); err != nil {
				return err
			}
		case choice == len(questions):
			if sheet, err := s.a.SheetFor(student); err == nil {
				s.printf("%s\n", render.Text(ctx, sheet, s.cfg.Styles))
			}
		case choice == len(questions)+1:
			s.exportSheet(ctx, student)
		default:
			return nil
		}
	}
}

func (s *Shell) exportSheet(ctx context.Context, student string) {
	sheet, err := s.a.SheetFor(student)
	if err == nil {
		var path string
		if path, err = render.WriteSheet(ctx, s.cfg.OutDir, sheet, render.FormatLaTeX); err == nil {
			s.printf("%s\n\n", i18n.Td(ctx, "WroteSheet", map[string]any{"Path": path}))
			return
		}
	}
	s.noticeText(i18n.Td(ctx, "OperationFailed", map[string]any{"Error": err.Error()}))
}

func (s *Shell) questionMenu(ctx context.Context, student string, q model.Question) error {
	for {
		s.printf("%s\n", render.QuestionText(ctx, s.a.QuestionSheetFor(student, q), s.cfg.Styles))
		items := []string{
			i18n.T(ctx, "AddNewComment"),
			i18n.T(ctx, "AddExistingComment"),
			i18n.T(ctx, "EditComment"),
			i18n.T(ctx, "RemoveComment"),
			i18n.T(ctx, "Back"),
		}
		title := fmt.Sprintf("%s - %s", student, i18n.Td(ctx, "QuestionHeading", map[string]any{"Label": q.Label()}))
		choice, err := s.menu(ctx, title, items)
		if err != nil {
			return err
		}
		switch choice {
		case 0:
			err = s.addNewComment(ctx, student, q)
		case 1:
			err = s.addExistingComment(ctx, student, q)
		case 2:
			err = s.editComment(ctx, student, q)
		case 3:
			err = s.removeComment(ctx, student, q)
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shell) addNewComment(ctx context.Context, student string, q model.Question) error {
	for {
		s.header(i18n.T(ctx, "AddNewComment"))
		deduction, err := s.amount(ctx, i18n.T(ctx, "Deduction"), "DeductionNegative", 0, false)
		if err != nil {
			return err
		}
		text, err := s.text(ctx, i18n.T(ctx, "CommentText"))
		if err != nil {
			return err
		}
		ok, err := s.confirm(ctx)
		if err != nil {
			return err
		}
		if ok {
			return s.apply(ctx, "add comment", func() error {
				_, err := s.a.AddComment(student, q, deduction, text)
				return err
			})
		}
	}
}

// pickComment offers comments as a menu and returns the chosen one, or
// false when the user cancels.
func (s *Shell) pickComment(ctx context.Context, title string, comments []model.Comment) (model.Comment, bool, error) {
	items := make([]string, 0, len(comments)+1)
	for _, c := range comments {
		items = append(items, render.CommentLine(c))
	}
	items = append(items, i18n.T(ctx, "Cancel"))
	choice, err := s.menu(ctx, title, items)
	if err != nil || choice == len(comments) {
		return model.Comment{}, false, err
	}
	return comments[choice], true, nil
}

func (s *Shell) addExistingComment(ctx context.Context, student string, q model.Question) error {
	comments := s.a.UnusedCommentsFor(student, q)
	if len(comments) == 0 {
		s.notice(ctx, "NoAvailableComments")
		return nil
	}
	c, ok, err := s.pickComment(ctx, i18n.T(ctx, "AddExistingComment"), comments)
	if err != nil || !ok {
		return err
	}
	return s.apply(ctx, "add to comment", func() error { return s.a.AddToComment(student, q, c.ID) })
}

func (s *Shell) editComment(ctx context.Context, student string, q model.Question) error {
	comments := s.a.StudentsCommentsFor(student, q)
	if len(comments) == 0 {
		s.notice(ctx, "NoCommentsAdded")
		return nil
	}
	c, ok, err := s.pickComment(ctx, i18n.T(ctx, "EditComment"), comments)
	if err != nil || !ok {
		return err
	}
	for {
		s.header(i18n.T(ctx, "EditCommentAll"))
		deduction, err := s.amount(ctx,
			i18n.Td(ctx, "DeductionCurrent", map[string]any{"Current": render.Num(c.Deduction)}),
			"DeductionNegative", c.Deduction, true)
		if err != nil {
			return err
		}
		text, err := s.textOr(i18n.Td(ctx, "CommentCurrent", map[string]any{"Current": c.Text}), c.Text)
		if err != nil {
			return err
		}
		ok, err := s.confirm(ctx)
		if err != nil {
			return err
		}
		if ok {
			return s.apply(ctx, "edit comment", func() error { return s.a.EditComment(q, c.ID, deduction, text) })
		}
	}
}

func (s *Shell) removeComment(ctx context.Context, student string, q model.Question) error {
	comments := s.a.StudentsCommentsFor(student, q)
	if len(comments) == 0 {
		s.notice(ctx, "NoCommentsAdded")
		return nil
	}
	c, ok, err := s.pickComment(ctx, i18n.T(ctx, "RemoveComment"), comments)
	if err != nil || !ok {
		return err
	}
	return s.apply(ctx, "remove comment", func() error { return s.a.RemoveFromComment(student, q, c.ID) })
}
