package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/movienight/pkg/types"
)

func newAnswerCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "answer",
		Short: "Record and list discussion answers",
	}
	cmd.AddCommand(newAnswerAddCmd(o), newAnswerListCmd(o))
	return cmd
}

func newAnswerAddCmd(o *options) *cobra.Command {
	var (
		questionID string
		childAge   int
		response   string
	)
	cmd := &cobra.Command{
		Use:   "add <memory-id>",
		Short: "Add a child's answer to a memory",
		Long: `Add a child's answer to a discussion question of a memory.

Example:
  movienight answer add 0195f3b7 --question q2 --age 8 --response "Be kind to robots"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answer := types.NewDiscussionAnswer(questionID, response, childAge)
			if err := answer.Validate(); err != nil {
				return userError("%v", err)
			}

			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := findMemory(a, args[0])
			if err != nil {
				return err
			}
			if !a.Memories.SaveDiscussionAnswer(answer, m.ID) {
				return sysError(fmt.Errorf("answer could not be saved"))
			}
			answer.MemoryID = m.ID
			if o.jsonMode {
				return printJSON(cmd.OutOrStdout(), answer)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added answer %s to memory %s\n", answer.ID, m.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&questionID, "question", "", "discussion question ID (required)")
	cmd.Flags().IntVar(&childAge, "age", 0, "age of the child answering")
	cmd.Flags().StringVar(&response, "response", "", "the child's answer (required)")
	cmd.MarkFlagRequired("question")
	cmd.MarkFlagRequired("response")
	return cmd
}

func newAnswerListCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list <memory-id>",
		Short: "List the discussion answers of a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := findMemory(a, args[0])
			if err != nil {
				return err
			}
			answers := a.Memories.GetDiscussionAnswers(m.ID)
			if o.jsonMode {
				return printJSON(cmd.OutOrStdout(), answers)
			}

			out := cmd.OutOrStdout()
			if len(answers) == 0 {
				fmt.Fprintln(out, "No answers found.")
				return nil
			}
			questions := map[string]string{}
			if movie, ok := a.Movies.GetMovie(m.MovieID); ok {
				for _, q := range movie.DiscussionQuestions {
					questions[q.ID] = q.Text
				}
			}
			rows := make([][]string, 0, len(answers))
			for _, ans := range answers {
				q := ans.QuestionID
				if text, ok := questions[q]; ok {
					q = truncate(text, 40)
				}
				rows = append(rows, []string{q, fmt.Sprint(ans.ChildAge), truncate(ans.Response, 50)})
			}
			printTable(out, []string{"QUESTION", "AGE", "RESPONSE"}, rows)
			return nil
		},
	}
}
