package vfs

import (
	"errors"
	"fmt"
	"strings"
)

// selfCheck is one scenario run against a scratch engine.
type selfCheck struct {
	name string
	run  func(s *Engine) error
}

var selfChecks = []selfCheck{
	{"canonicalize", func(*Engine) error {
		got, ok := Canonicalize("/a//b/../c/")
		if !ok || got != "/a/c/" {
			return fmt.Errorf("got %q", got)
		}
		again, _ := Canonicalize(got)
		if again != got {
			return fmt.Errorf("not idempotent: %q", again)
		}
		return nil
	}},
	{"quota", func(s *Engine) error {
		if err := s.Create("/dir/"); err != nil {
			return err
		}
		if err := s.SetLimit("/dir/", 10); err != nil {
			return err
		}
		if err := s.Write("/dir/file.txt", "12345678901"); KindOf(err) != KindQuotaExceeded {
			return fmt.Errorf("write over limit: %v", err)
		}
		if size, _ := s.Size("/dir/"); size != 0 {
			return fmt.Errorf("size %d after rejected write", size)
		}
		return nil
	}},
	{"visibility", func(s *Engine) error {
		if err := s.Write("/hide/inner.txt", "x"); err != nil {
			return err
		}
		if err := s.SetPermission("/hide/", ActionSee, false); err != nil {
			return err
		}
		if s.Exists("/hide/") {
			return errors.New("hidden directory still exists")
		}
		names, err := s.List("/", FilterAll)
		if err != nil {
			return err
		}
		for _, n := range names {
			if n == "hide" {
				return errors.New("hidden directory listed")
			}
		}
		return nil
	}},
	{"auto-create", func(s *Engine) error {
		if err := s.Write("/a/b/c/deep.txt", "deep"); err != nil {
			return err
		}
		for _, d := range []string{"/a/", "/a/b/", "/a/b/c/"} {
			if !s.IsDir(d) {
				return fmt.Errorf("%s missing", d)
			}
		}
		if got, err := s.Read("/a/b/c/deep.txt"); err != nil || got != "deep" {
			return fmt.Errorf("read back %q: %v", got, err)
		}
		return nil
	}},
	{"cross-volume copy", func(s *Engine) error {
		if err := s.Write("/RAM/x.txt", "ram"); err != nil {
			return err
		}
		if err := s.Copy("/RAM/x.txt", "/saved.txt"); err != nil {
			return err
		}
		if got, _ := s.Read("/saved.txt"); got != "ram" {
			return fmt.Errorf("copy holds %q", got)
		}
		if got, _ := s.Read("/RAM/x.txt"); got != "ram" {
			return fmt.Errorf("source holds %q", got)
		}
		return nil
	}},
	{"soft delete", func(s *Engine) error {
		if err := s.Write("/test.txt", "bye"); err != nil {
			return err
		}
		if err := s.Delete("/test.txt"); err != nil {
			return err
		}
		trash, _ := s.List(TrashPath, FilterAll)
		if len(trash) != 1 {
			return fmt.Errorf("%d trash entries", len(trash))
		}
		if got, _ := s.Read(TrashPath + trash[0]); got != "bye" {
			return fmt.Errorf("trashed content %q", got)
		}
		if err := s.Delete(TrashPath + trash[0]); err != nil {
			return err
		}
		if trash, _ = s.List(TrashPath, FilterAll); len(trash) != 0 {
			return fmt.Errorf("%d trash entries after permanent delete", len(trash))
		}
		return nil
	}},
	{"snapshot", func(s *Engine) error {
		if err := s.Write("/docs/note.txt", "hello"); err != nil {
			return err
		}
		before, err := s.Export()
		if err != nil {
			return err
		}
		if err := s.Import(before); err != nil {
			return err
		}
		after, _ := s.Export()
		if after != before {
			return errors.New("round trip changed the volume")
		}
		if err := s.Import("{not json"); KindOf(err) != KindImportError {
			return fmt.Errorf("malformed import: %v", err)
		}
		if again, _ := s.Export(); again != before {
			return errors.New("malformed import changed the volume")
		}
		return nil
	}},
}

// SelfTest runs the engine's core guarantees against a scratch engine built
// from the same configuration. The receiver's volumes are left untouched.
func (e *Engine) SelfTest() error {
	var failed []string
	for _, c := range selfChecks {
		scratch := New(e.cfg)
		scratch.SetLogging(false)
		if err := c.run(scratch); err != nil {
			failed = append(failed, c.name+": "+err.Error())
			e.logger.Warn().Str("check", c.name).Err(err).Msg("Self test failed")
			continue
		}
		e.logger.Debug().Str("check", c.name).Msg("Self test passed")
	}
	if len(failed) > 0 {
		return errors.New("self test: " + strings.Join(failed, "; "))
	}
	return nil
}
