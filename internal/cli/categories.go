package cli

import (
	"context"
	"fmt"

	"github.com/nhle/habitlog/internal/model"
)

// CategoryCmd manages categories.
type CategoryCmd struct {
	Add    CategoryAddCmd    `cmd:"" help:"Add a custom category."`
	List   CategoryListCmd   `cmd:"" default:"1" help:"List categories."`
	Delete CategoryDeleteCmd `cmd:"" help:"Delete a custom category."`
}

// CategoryAddCmd creates a custom category.
type CategoryAddCmd struct {
	Name string `arg:"" help:"Category name."`
}

func (cmd *CategoryAddCmd) Run(c *Context) error {
	ctx := context.Background()
	cat := c.Store.AddCategory(ctx, cmd.Name)
	fmt.Printf("added category %q\n", cat.Name)

	c.pushAfterMutation(ctx)
	return nil
}

// CategoryListCmd prints all categories.
type CategoryListCmd struct{}

func (cmd *CategoryListCmd) Run(c *Context) error {
	for _, cat := range c.Store.Categories() {
		kind := "built-in"
		if cat.IsCustom {
			kind = "custom"
		}
		fmt.Printf("%-20s %s\n", cat.Name, kind)
	}
	return nil
}

// CategoryDeleteCmd removes a custom category by name. Built-in
// categories are never deleted.
type CategoryDeleteCmd struct {
	Name string `arg:"" help:"Category name."`
}

func (cmd *CategoryDeleteCmd) Run(c *Context) error {
	cat, ok := model.FindCategory(c.Store.Categories(), cmd.Name)
	if !ok {
		return fmt.Errorf("no category named %q", cmd.Name)
	}
	if !cat.IsCustom {
		fmt.Printf("%q is a built-in category and cannot be deleted\n", cat.Name)
		return nil
	}

	ctx := context.Background()
	c.Store.DeleteCategory(ctx, cat)
	fmt.Printf("deleted category %q\n", cat.Name)

	c.pushAfterMutation(ctx)
	return nil
}

// ColumnCmd manages custom column definitions.
type ColumnCmd struct {
	Add  ColumnAddCmd  `cmd:"" help:"Add a custom column."`
	List ColumnListCmd `cmd:"" default:"1" help:"List custom columns."`
}

// ColumnAddCmd appends a custom column definition.
type ColumnAddCmd struct {
	Name string `arg:"" help:"Column name."`
	Type string `default:"text" enum:"text,boolean" help:"Column type (text or boolean)."`
}

func (cmd *ColumnAddCmd) Run(c *Context) error {
	ctx := context.Background()
	col := c.Store.AddCustomColumn(ctx, cmd.Name, model.ColumnType(cmd.Type))
	fmt.Printf("added %s column %q\n", col.Type, col.Name)

	c.pushAfterMutation(ctx)
	return nil
}

// ColumnListCmd prints the column definitions in definition order.
type ColumnListCmd struct{}

func (cmd *ColumnListCmd) Run(c *Context) error {
	cols := c.Store.CustomColumns()
	if len(cols) == 0 {
		fmt.Println("no custom columns defined")
		return nil
	}
	for _, col := range cols {
		fmt.Printf("%-20s %s\n", col.Name, col.Type)
	}
	return nil
}
