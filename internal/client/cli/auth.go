package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/interntrack/internal/common"
)

func (a *App) Register(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return a.report(err)
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.report(err)
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	s, err := a.api.Register(ctx, name, email, password)
	if err != nil {
		return a.report(err)
	}
	a.setUser(s.Email)
	fmt.Fprintln(a.out, "Registered and logged in as", s.Email)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.report(err)
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	s, err := a.api.Login(ctx, email, password)
	if err != nil {
		fmt.Fprintln(a.out, "Login unsuccessful:", err)
		return err
	}
	a.setUser(s.Email)
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(context.Context) error {
	a.api.SetToken("")
	a.setUser("")
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	p, err := a.api.Profile(ctx)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "%s <%s>, member since %s\n", p.Name, p.Email, p.CreatedAt.Format(dateLayout))
	return nil
}
